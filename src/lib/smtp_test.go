package lib

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMailMsg(t *testing.T) {
	msg, err := NewMailMsg(&SendMailInput{
		From:     "tickets@uni.example",
		FromName: "Campus Events",
		To:       []string{"student@uni.example"},
		Subject:  "Your ticket EVT7-R3-ABCDEFGH",
		Body:     "See you there",
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Subject: Your ticket EVT7-R3-ABCDEFGH")
	assert.Contains(t, buf.String(), "<student@uni.example>")
}

func TestNewMailMsgRejectsBadRecipient(t *testing.T) {
	_, err := NewMailMsg(&SendMailInput{From: "tickets@uni.example", To: []string{"not an address"}})
	assert.Error(t, err)
}
