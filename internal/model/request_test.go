package model

import (
    "testing"

    "github.com/stretchr/testify/assert"
)

func TestTerminalStatus(t *testing.T) {
    assert.False(t, TerminalStatus(RequestPending))
    assert.True(t, TerminalStatus(RequestAccepted))
    assert.True(t, TerminalStatus(RequestRejected))
    assert.False(t, TerminalStatus("unknown"))
}

func TestValidDecision(t *testing.T) {
    assert.True(t, ValidDecision(RequestAccepted))
    assert.True(t, ValidDecision(RequestRejected))
    assert.False(t, ValidDecision(RequestPending))
    assert.False(t, ValidDecision(""))
}

func TestValidRole(t *testing.T) {
    assert.True(t, ValidRole(RoleFarmer))
    assert.True(t, ValidRole(RoleDealer))
    assert.False(t, ValidRole("admin"))
    assert.False(t, ValidRole(""))
}
