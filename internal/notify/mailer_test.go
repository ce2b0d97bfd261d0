package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/party-venue-reservation/internal/config"
)

func TestNewMailerDisabledWithoutHost(t *testing.T) {
	assert.Nil(t, NewMailer(config.MailConfig{}))
	assert.NotNil(t, NewMailer(config.MailConfig{Host: "smtp.example.com", Port: 587, From: "a@example.com"}))
}
