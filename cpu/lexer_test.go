package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecommentStripsCommentAndCollapsesSpace(t *testing.T) {
	assert := assert.New(t)

	code, err := decomment("set   A    42   # the answer")
	assert.NoError(err)
	assert.Equal("set A 42", code)
}

func TestDecommentBlankAndCommentOnlyLines(t *testing.T) {
	assert := assert.New(t)

	code, err := decomment("")
	assert.NoError(err)
	assert.Equal("", code)

	code, err = decomment("   # just a comment")
	assert.NoError(err)
	assert.Equal("", code)
}

func TestDecommentRejectsInvalidCodeCharacter(t *testing.T) {
	assert := assert.New(t)

	_, err := decomment("set A $42")
	assert.ErrorIs(err, ErrInvalidCharacter)
}

func TestDecommentRejectsInvalidCommentCharacter(t *testing.T) {
	assert := assert.New(t)

	_, err := decomment("set A 42 # ok but \x01 not")
	assert.ErrorIs(err, ErrInvalidCharacter)
}

func TestDecommentTabsBecomeSpaces(t *testing.T) {
	assert := assert.New(t)

	code, err := decomment("set\tA\t42")
	assert.NoError(err)
	assert.Equal("set A 42", code)
}
