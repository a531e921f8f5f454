package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeReviewSort(t *testing.T) {
	assert.Equal(t, SortDateDesc, NormalizeReviewSort(""))
	assert.Equal(t, SortDateDesc, NormalizeReviewSort("bogus"))
	assert.Equal(t, SortDateDesc, NormalizeReviewSort(SortDateDesc))
	assert.Equal(t, SortRatingDesc, NormalizeReviewSort(SortRatingDesc))
	assert.Equal(t, SortHelpfulDesc, NormalizeReviewSort(SortHelpfulDesc))
}
