package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError(t *testing.T) {
	v := NewValidationError()
	assert.NoError(t, v.OrNil())

	v.Add("guest_email", "Email is required")
	v.Add("guest_email", "Please enter a valid email address")
	v.Add("check_out_date", "Check-out date must be after check-in date")

	err := v.OrNil()
	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, "Email is required", v.Fields["guest_email"])
	assert.Equal(t,
		"validation failed: check_out_date: Check-out date must be after check-in date; guest_email: Email is required",
		err.Error())

	wrapped := fmt.Errorf("create booking: %w", err)
	var ve *ValidationError
	assert.True(t, errors.As(wrapped, &ve))
	assert.Len(t, ve.Fields, 2)
}
