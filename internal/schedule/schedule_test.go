package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverlaps(t *testing.T) {
	cases := []struct {
		name string
		a, b Interval
		want bool
	}{
		{"same range", Interval{660, 900}, Interval{660, 900}, true},
		{"partial", Interval{660, 900}, Interval{840, 960}, true},
		{"contained", Interval{600, 1000}, Interval{700, 800}, true},
		{"touching", Interval{660, 900}, Interval{900, 1020}, false},
		{"disjoint", Interval{660, 720}, Interval{1020, 1260}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Overlaps(tc.a, tc.b))
			assert.Equal(t, tc.want, Overlaps(tc.b, tc.a))
		})
	}
}

func TestSlotsDoNotOverlap(t *testing.T) {
	m, err := SlotRange(SlotMorning)
	require.NoError(t, err)
	a, err := SlotRange(SlotAfternoon)
	require.NoError(t, err)
	assert.False(t, Overlaps(m, a))
}

func TestNormalizeSlot(t *testing.T) {
	assert.Equal(t, SlotMorning, NormalizeSlot(" Mañana "))
	assert.Equal(t, SlotAfternoon, NormalizeSlot("TARDE"))
	_, err := SlotRange("noche")
	assert.ErrorIs(t, err, ErrInvalidSlot)
}

func TestDefaultEndAddsThreeHours(t *testing.T) {
	end, err := DefaultEnd("14:30")
	require.NoError(t, err)
	assert.Equal(t, "17:30", end)

	end, err = DefaultEnd("22:15")
	require.NoError(t, err)
	assert.Equal(t, "23:59", end)
}

func TestResolveSlotOnly(t *testing.T) {
	w, err := Resolve("manana", "", "")
	require.NoError(t, err)
	assert.Equal(t, "11:00", w.HoraInicio)
	assert.Equal(t, "15:00", w.HoraFin)
	assert.Equal(t, SlotMorning, w.Horario)
}

func TestResolveStartOnlyDerivesSlot(t *testing.T) {
	w, err := Resolve("", "17:30", "")
	require.NoError(t, err)
	assert.Equal(t, "20:30", w.HoraFin)
	assert.Equal(t, SlotAfternoon, w.Horario)

	w, err = Resolve("", "15:30", "18:00")
	require.NoError(t, err)
	assert.Equal(t, "", w.Horario)
}

func TestResolveErrors(t *testing.T) {
	_, err := Resolve("", "", "")
	assert.ErrorIs(t, err, ErrMissingTime)
	_, err = Resolve("", "18:00", "17:00")
	assert.ErrorIs(t, err, ErrInvalidRange)
	_, err = Resolve("", "25:00", "")
	assert.ErrorIs(t, err, ErrInvalidTime)
	_, err = Resolve("noche", "12:00", "13:00")
	assert.ErrorIs(t, err, ErrInvalidSlot)
}

func TestParseClockAcceptsSeconds(t *testing.T) {
	m, err := ParseClock("09:05:00")
	require.NoError(t, err)
	assert.Equal(t, 545, m)
	assert.Equal(t, "09:05", FormatClock(m))
}

func TestParseDate(t *testing.T) {
	_, err := ParseDate("2025-06-10")
	assert.NoError(t, err)
	_, err = ParseDate("10/06/2025")
	assert.ErrorIs(t, err, ErrInvalidDate)
}
