package translate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrom(t *testing.T) {
	assert := assert.New(t)

	assert.NoError(Use("en-US"))
	assert.Equal("register eax width 7", From("register %v width %d", "eax", 7))
	assert.Equal("1,234 steps", From("%d steps", 1234))

	assert.Error(Use("not a language tag!"))
}
