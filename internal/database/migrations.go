package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// RunMigrations creates every table the API needs.  Statements are
// idempotent so the function is safe to run on each boot.  Order matters:
// referenced tables come before the tables holding foreign keys.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	slog.Info("running database migrations", "steps", len(migrations))

	for i, m := range migrations {
		if _, err := db.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	slog.Info("database migrations completed")
	return nil
}

var migrations = []string{
	createUsuariosTable,
	createRefreshTokensTable,
	createTematicasTable,
	createPaquetesTable,
	createMamparasTable,
	createMateriasPrimasTable,
	createOpcionesAlimentoTable,
	createExtrasTable,
	createReservasTable,
	createReservaExtrasTable,
	createCotizacionesTable,
	createCotizacionExtrasTable,
	createPreReservasTable,
	createPagosTable,
	createLotesTable,
	createTiposAjusteTable,
	createMovimientosTable,
	createAlertasTable,
	createCategoriasTable,
	createFinanzasTable,
	createAuditoriaTable,
}

const createUsuariosTable = `
CREATE TABLE IF NOT EXISTS usuarios (
    id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
    nombre VARCHAR(120) NOT NULL,
    email VARCHAR(190) NOT NULL,
    password_hash VARCHAR(255) NOT NULL,
    telefono VARCHAR(30) NULL,
    rol ENUM('admin','cliente') NOT NULL DEFAULT 'cliente',
    activo TINYINT(1) NOT NULL DEFAULT 1,
    fecha_creacion DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    fecha_actualizacion DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
    UNIQUE KEY uq_usuarios_email (email)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

const createRefreshTokensTable = `
CREATE TABLE IF NOT EXISTS refresh_tokens (
    id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
    user_id BIGINT UNSIGNED NOT NULL,
    token_hash CHAR(64) NOT NULL,
    expires_at DATETIME NOT NULL,
    revoked_at DATETIME NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE KEY uq_refresh_hash (token_hash),
    CONSTRAINT fk_refresh_user FOREIGN KEY (user_id) REFERENCES usuarios(id) ON DELETE CASCADE
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

const createTematicasTable = `
CREATE TABLE IF NOT EXISTS tematicas (
    id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
    nombre VARCHAR(120) NOT NULL,
    descripcion TEXT NULL,
    activo TINYINT(1) NOT NULL DEFAULT 1,
    fecha_creacion DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    fecha_actualizacion DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
    UNIQUE KEY uq_tematicas_nombre (nombre)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

const createPaquetesTable = `
CREATE TABLE IF NOT EXISTS paquetes (
    id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
    nombre VARCHAR(120) NOT NULL,
    descripcion TEXT NULL,
    precio DECIMAL(12,2) NOT NULL,
    capacidad INT UNSIGNED NOT NULL DEFAULT 0,
    activo TINYINT(1) NOT NULL DEFAULT 1,
    fecha_creacion DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    fecha_actualizacion DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
    UNIQUE KEY uq_paquetes_nombre (nombre)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

const createMamparasTable = `
CREATE TABLE IF NOT EXISTS mamparas (
    id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
    nombre VARCHAR(120) NOT NULL,
    id_tematica BIGINT UNSIGNED NULL,
    precio DECIMAL(12,2) NOT NULL DEFAULT 0,
    piezas INT UNSIGNED NOT NULL DEFAULT 1,
    activo TINYINT(1) NOT NULL DEFAULT 1,
    fecha_creacion DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    fecha_actualizacion DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
    UNIQUE KEY uq_mamparas_nombre (nombre),
    CONSTRAINT fk_mamparas_tematica FOREIGN KEY (id_tematica) REFERENCES tematicas(id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

const createMateriasPrimasTable = `
CREATE TABLE IF NOT EXISTS materias_primas (
    id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
    nombre VARCHAR(120) NOT NULL,
    unidad_medida VARCHAR(20) NOT NULL,
    stock_actual DECIMAL(14,3) NOT NULL DEFAULT 0,
    stock_minimo DECIMAL(14,3) NOT NULL DEFAULT 0,
    proveedor VARCHAR(160) NULL,
    fecha_limite_proveedor DATE NULL,
    id_usuario_responsable BIGINT UNSIGNED NULL,
    activo TINYINT(1) NOT NULL DEFAULT 1,
    fecha_creacion DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    fecha_actualizacion DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
    UNIQUE KEY uq_materias_nombre (nombre),
    CONSTRAINT fk_materias_responsable FOREIGN KEY (id_usuario_responsable) REFERENCES usuarios(id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

const createOpcionesAlimentoTable = `
CREATE TABLE IF NOT EXISTS opciones_alimento (
    id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
    nombre VARCHAR(120) NOT NULL,
    id_tematica BIGINT UNSIGNED NULL,
    precio_adulto DECIMAL(12,2) NOT NULL DEFAULT 0,
    precio_nino DECIMAL(12,2) NOT NULL DEFAULT 0,
    id_materia_prima BIGINT UNSIGNED NULL,
    cantidad_por_persona DECIMAL(14,3) NOT NULL DEFAULT 0,
    activo TINYINT(1) NOT NULL DEFAULT 1,
    fecha_creacion DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    fecha_actualizacion DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
    UNIQUE KEY uq_opciones_nombre (nombre),
    CONSTRAINT fk_opciones_tematica FOREIGN KEY (id_tematica) REFERENCES tematicas(id),
    CONSTRAINT fk_opciones_materia FOREIGN KEY (id_materia_prima) REFERENCES materias_primas(id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

const createExtrasTable = `
CREATE TABLE IF NOT EXISTS extras (
    id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
    nombre VARCHAR(120) NOT NULL,
    descripcion TEXT NULL,
    precio DECIMAL(12,2) NOT NULL,
    activo TINYINT(1) NOT NULL DEFAULT 1,
    fecha_creacion DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    fecha_actualizacion DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
    UNIQUE KEY uq_extras_nombre (nombre)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

const createReservasTable = `
CREATE TABLE IF NOT EXISTS reservas (
    id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
    id_usuario BIGINT UNSIGNED NOT NULL,
    id_paquete BIGINT UNSIGNED NOT NULL,
    id_tematica BIGINT UNSIGNED NULL,
    id_mampara BIGINT UNSIGNED NULL,
    id_opcion_alimento BIGINT UNSIGNED NULL,
    codigo_seguimiento VARCHAR(24) NOT NULL,
    fecha_reserva DATE NOT NULL,
    hora_inicio TIME NOT NULL,
    hora_fin TIME NOT NULL,
    horario VARCHAR(10) NOT NULL DEFAULT '',
    nombre_festejado VARCHAR(120) NOT NULL,
    edad_festejado INT UNSIGNED NOT NULL DEFAULT 0,
    sexo_festejado VARCHAR(10) NOT NULL DEFAULT '',
    numero_adultos INT UNSIGNED NOT NULL DEFAULT 0,
    numero_ninos INT UNSIGNED NOT NULL DEFAULT 0,
    comentarios TEXT NULL,
    total DECIMAL(12,2) NOT NULL DEFAULT 0,
    estado ENUM('pendiente','confirmada','cancelada') NOT NULL DEFAULT 'pendiente',
    activo TINYINT(1) NOT NULL DEFAULT 1,
    fecha_creacion DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    fecha_actualizacion DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
    UNIQUE KEY uq_reservas_codigo (codigo_seguimiento),
    KEY idx_reservas_fecha (fecha_reserva, estado, activo),
    CONSTRAINT fk_reservas_usuario FOREIGN KEY (id_usuario) REFERENCES usuarios(id),
    CONSTRAINT fk_reservas_paquete FOREIGN KEY (id_paquete) REFERENCES paquetes(id),
    CONSTRAINT fk_reservas_tematica FOREIGN KEY (id_tematica) REFERENCES tematicas(id),
    CONSTRAINT fk_reservas_mampara FOREIGN KEY (id_mampara) REFERENCES mamparas(id),
    CONSTRAINT fk_reservas_opcion FOREIGN KEY (id_opcion_alimento) REFERENCES opciones_alimento(id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

const createReservaExtrasTable = `
CREATE TABLE IF NOT EXISTS reserva_extras (
    id_reserva BIGINT UNSIGNED NOT NULL,
    id_extra BIGINT UNSIGNED NOT NULL,
    cantidad INT UNSIGNED NOT NULL DEFAULT 1,
    precio_unitario DECIMAL(12,2) NOT NULL,
    PRIMARY KEY (id_reserva, id_extra),
    CONSTRAINT fk_reserva_extras_reserva FOREIGN KEY (id_reserva) REFERENCES reservas(id) ON DELETE CASCADE,
    CONSTRAINT fk_reserva_extras_extra FOREIGN KEY (id_extra) REFERENCES extras(id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

const createCotizacionesTable = `
CREATE TABLE IF NOT EXISTS cotizaciones (
    id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
    id_usuario BIGINT UNSIGNED NOT NULL,
    codigo VARCHAR(24) NOT NULL,
    id_paquete BIGINT UNSIGNED NOT NULL,
    id_tematica BIGINT UNSIGNED NULL,
    id_mampara BIGINT UNSIGNED NULL,
    id_opcion_alimento BIGINT UNSIGNED NULL,
    fecha_reserva DATE NOT NULL,
    hora_inicio TIME NOT NULL,
    hora_fin TIME NOT NULL,
    horario VARCHAR(10) NOT NULL DEFAULT '',
    nombre_festejado VARCHAR(120) NOT NULL,
    edad_festejado INT UNSIGNED NOT NULL DEFAULT 0,
    sexo_festejado VARCHAR(10) NOT NULL DEFAULT '',
    numero_adultos INT UNSIGNED NOT NULL DEFAULT 0,
    numero_ninos INT UNSIGNED NOT NULL DEFAULT 0,
    comentarios TEXT NULL,
    total DECIMAL(12,2) NOT NULL DEFAULT 0,
    estado ENUM('creada','convertida','expirada') NOT NULL DEFAULT 'creada',
    id_reserva BIGINT UNSIGNED NULL,
    fecha_creacion DATETIME NOT NULL,
    fecha_expiracion DATETIME NOT NULL,
    fecha_actualizacion DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
    UNIQUE KEY uq_cotizaciones_codigo (codigo),
    KEY idx_cotizaciones_estado (estado, fecha_expiracion),
    CONSTRAINT fk_cotizaciones_usuario FOREIGN KEY (id_usuario) REFERENCES usuarios(id),
    CONSTRAINT fk_cotizaciones_paquete FOREIGN KEY (id_paquete) REFERENCES paquetes(id),
    CONSTRAINT fk_cotizaciones_reserva FOREIGN KEY (id_reserva) REFERENCES reservas(id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

const createCotizacionExtrasTable = `
CREATE TABLE IF NOT EXISTS cotizacion_extras (
    id_cotizacion BIGINT UNSIGNED NOT NULL,
    id_extra BIGINT UNSIGNED NOT NULL,
    cantidad INT UNSIGNED NOT NULL DEFAULT 1,
    precio_unitario DECIMAL(12,2) NOT NULL,
    PRIMARY KEY (id_cotizacion, id_extra),
    CONSTRAINT fk_cot_extras_cot FOREIGN KEY (id_cotizacion) REFERENCES cotizaciones(id) ON DELETE CASCADE,
    CONSTRAINT fk_cot_extras_extra FOREIGN KEY (id_extra) REFERENCES extras(id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

const createPreReservasTable = `
CREATE TABLE IF NOT EXISTS pre_reservas (
    id CHAR(36) NOT NULL PRIMARY KEY,
    id_usuario BIGINT UNSIGNED NOT NULL,
    codigo_seguimiento VARCHAR(24) NOT NULL,
    fecha_reserva DATE NOT NULL,
    hora_inicio TIME NOT NULL,
    hora_fin TIME NOT NULL,
    datos JSON NOT NULL,
    total DECIMAL(12,2) NOT NULL,
    estado ENUM('pendiente_pago','finalizada','expirada','cancelada') NOT NULL DEFAULT 'pendiente_pago',
    expira_en DATETIME NOT NULL,
    id_reserva BIGINT UNSIGNED NULL,
    fecha_creacion DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    fecha_actualizacion DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
    UNIQUE KEY uq_pre_reservas_codigo (codigo_seguimiento),
    KEY idx_pre_reservas_fecha (fecha_reserva, estado, expira_en),
    CONSTRAINT fk_pre_reservas_usuario FOREIGN KEY (id_usuario) REFERENCES usuarios(id),
    CONSTRAINT fk_pre_reservas_reserva FOREIGN KEY (id_reserva) REFERENCES reservas(id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

const createPagosTable = `
CREATE TABLE IF NOT EXISTS pagos (
    id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
    id_usuario BIGINT UNSIGNED NOT NULL,
    id_reserva BIGINT UNSIGNED NULL,
    id_pre_reserva CHAR(36) NULL,
    metodo_pago VARCHAR(20) NOT NULL,
    monto DECIMAL(12,2) NOT NULL,
    moneda CHAR(3) NOT NULL DEFAULT 'mxn',
    estado ENUM('pendiente','completado','cancelado') NOT NULL DEFAULT 'pendiente',
    referencia_externa VARCHAR(255) NULL,
    datos_confirmacion JSON NULL,
    fecha_creacion DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    fecha_actualizacion DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
    KEY idx_pagos_estado (estado),
    CONSTRAINT fk_pagos_usuario FOREIGN KEY (id_usuario) REFERENCES usuarios(id),
    CONSTRAINT fk_pagos_reserva FOREIGN KEY (id_reserva) REFERENCES reservas(id),
    CONSTRAINT fk_pagos_pre_reserva FOREIGN KEY (id_pre_reserva) REFERENCES pre_reservas(id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

const createLotesTable = `
CREATE TABLE IF NOT EXISTS lotes (
    id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
    id_materia_prima BIGINT UNSIGNED NOT NULL,
    codigo_lote VARCHAR(60) NOT NULL,
    cantidad DECIMAL(14,3) NOT NULL DEFAULT 0,
    fecha_caducidad DATE NULL,
    activo TINYINT(1) NOT NULL DEFAULT 1,
    fecha_creacion DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    fecha_actualizacion DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
    UNIQUE KEY uq_lotes_codigo (id_materia_prima, codigo_lote),
    CONSTRAINT fk_lotes_materia FOREIGN KEY (id_materia_prima) REFERENCES materias_primas(id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

const createTiposAjusteTable = `
CREATE TABLE IF NOT EXISTS tipos_ajuste (
    id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
    nombre VARCHAR(120) NOT NULL,
    descripcion TEXT NULL,
    activo TINYINT(1) NOT NULL DEFAULT 1,
    fecha_creacion DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    fecha_actualizacion DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
    UNIQUE KEY uq_tipos_ajuste_nombre (nombre)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

const createMovimientosTable = `
CREATE TABLE IF NOT EXISTS movimientos_inventario (
    id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
    id_materia_prima BIGINT UNSIGNED NOT NULL,
    id_lote BIGINT UNSIGNED NULL,
    tipo ENUM('entrada','salida','ajuste') NOT NULL,
    cantidad DECIMAL(14,3) NOT NULL,
    id_tipo_ajuste BIGINT UNSIGNED NULL,
    descripcion VARCHAR(255) NULL,
    id_usuario BIGINT UNSIGNED NOT NULL,
    fecha DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    KEY idx_movimientos_materia (id_materia_prima, fecha),
    CONSTRAINT fk_movimientos_materia FOREIGN KEY (id_materia_prima) REFERENCES materias_primas(id),
    CONSTRAINT fk_movimientos_lote FOREIGN KEY (id_lote) REFERENCES lotes(id),
    CONSTRAINT fk_movimientos_tipo FOREIGN KEY (id_tipo_ajuste) REFERENCES tipos_ajuste(id),
    CONSTRAINT fk_movimientos_usuario FOREIGN KEY (id_usuario) REFERENCES usuarios(id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

const createAlertasTable = `
CREATE TABLE IF NOT EXISTS alertas_inventario (
    id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
    id_materia_prima BIGINT UNSIGNED NOT NULL,
    id_lote BIGINT UNSIGNED NULL,
    tipo ENUM('stock_bajo','caducidad','fecha_limite_proveedor','ajuste_requerido') NOT NULL,
    mensaje VARCHAR(500) NOT NULL,
    id_usuario_destinatario BIGINT UNSIGNED NOT NULL,
    leida TINYINT(1) NOT NULL DEFAULT 0,
    fecha_creacion DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    fecha_lectura DATETIME NULL,
    KEY idx_alertas_destinatario (id_usuario_destinatario, leida, tipo),
    CONSTRAINT fk_alertas_materia FOREIGN KEY (id_materia_prima) REFERENCES materias_primas(id),
    CONSTRAINT fk_alertas_lote FOREIGN KEY (id_lote) REFERENCES lotes(id),
    CONSTRAINT fk_alertas_usuario FOREIGN KEY (id_usuario_destinatario) REFERENCES usuarios(id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

const createCategoriasTable = `
CREATE TABLE IF NOT EXISTS categorias (
    id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
    nombre VARCHAR(120) NOT NULL,
    tipo ENUM('ingreso','gasto') NOT NULL,
    activo TINYINT(1) NOT NULL DEFAULT 1,
    fecha_creacion DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    fecha_actualizacion DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
    UNIQUE KEY uq_categorias_nombre (nombre)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

const createFinanzasTable = `
CREATE TABLE IF NOT EXISTS finanzas (
    id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
    tipo ENUM('ingreso','gasto') NOT NULL,
    monto DECIMAL(12,2) NOT NULL,
    descripcion VARCHAR(255) NULL,
    id_categoria BIGINT UNSIGNED NULL,
    id_reserva BIGINT UNSIGNED NULL,
    id_pago BIGINT UNSIGNED NULL,
    fecha DATE NOT NULL,
    id_usuario BIGINT UNSIGNED NULL,
    fecha_creacion DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    KEY idx_finanzas_fecha (fecha, tipo),
    CONSTRAINT fk_finanzas_categoria FOREIGN KEY (id_categoria) REFERENCES categorias(id),
    CONSTRAINT fk_finanzas_reserva FOREIGN KEY (id_reserva) REFERENCES reservas(id),
    CONSTRAINT fk_finanzas_pago FOREIGN KEY (id_pago) REFERENCES pagos(id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

const createAuditoriaTable = `
CREATE TABLE IF NOT EXISTS auditoria (
    id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
    id_usuario BIGINT UNSIGNED NULL,
    metodo VARCHAR(10) NOT NULL,
    ruta VARCHAR(255) NOT NULL,
    datos TEXT NULL,
    fecha DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    KEY idx_auditoria_fecha (fecha),
    KEY idx_auditoria_usuario (id_usuario)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`
