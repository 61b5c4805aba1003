package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStageErrorNamesStageAndSource(t *testing.T) {
	err := NewStageError(StageParse, "userdata/collection.xml", fmt.Errorf("%w: item without objectid", ErrParse))

	assert.EqualError(t, err, "parse userdata/collection.xml: malformed source markup: item without objectid")
	assert.True(t, errors.Is(err, ErrParse))

	var se *StageError
	if assert.True(t, errors.As(err, &se)) {
		assert.Equal(t, StageParse, se.Stage)
		assert.Equal(t, "userdata/collection.xml", se.Source)
	}
}

func TestStageErrorWithoutSource(t *testing.T) {
	err := NewStageError(StageMerge, "", ErrDuplicateIdentity)
	assert.EqualError(t, err, "merge: duplicate game id")
}

func TestNewStageErrorNil(t *testing.T) {
	assert.NoError(t, NewStageError(StageFetch, "collection", nil))
}
