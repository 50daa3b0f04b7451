package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUpdateSet(t *testing.T) {
	var s UpdateSet
	assert.True(t, s.Empty())

	s.Add("customer_name", "Amit")
	s.Add("phone", "9876543210")
	q, args := s.Build("customers", "customer_id", 4)

	assert.False(t, s.Empty())
	assert.Equal(t, "UPDATE customers SET customer_name=$1, phone=$2 WHERE customer_id=$3", q)
	assert.Equal(t, []any{"Amit", "9876543210", int64(4)}, args)
}
