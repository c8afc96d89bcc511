package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdftpl/templateengine/internal/block"
)

type fakeExtractor struct {
	text   string
	blocks []block.Block
	err    error
}

func (f fakeExtractor) Extract(_ context.Context, _ string, _ int) (string, []block.Block, error) {
	return f.text, f.blocks, f.err
}

func TestChain_FirstNonEmptyWins(t *testing.T) {
	empty := fakeExtractor{}
	populated := fakeExtractor{text: "hi", blocks: []block.Block{{Text: "hi"}}}

	c := NewChain(empty, populated)
	text, blocks, err := c.Extract(context.Background(), "whatever.pdf", 1)
	require.NoError(t, err)
	assert.Equal(t, "hi", text)
	assert.Len(t, blocks, 1)
}

func TestChain_StopsAtFirstStrategyWithBlocks(t *testing.T) {
	first := fakeExtractor{text: "a", blocks: []block.Block{{Text: "a"}}}
	second := fakeExtractor{text: "b", blocks: []block.Block{{Text: "b"}}}

	c := NewChain(first, second)
	text, _, err := c.Extract(context.Background(), "whatever.pdf", 1)
	require.NoError(t, err)
	assert.Equal(t, "a", text)
}

func TestChain_ErrorFromOneStrategyDoesNotAbortChain(t *testing.T) {
	failing := fakeExtractor{err: errors.New("boom")}
	fallback := fakeExtractor{text: "ok", blocks: []block.Block{{Text: "ok"}}}

	c := NewChain(failing, fallback)
	text, blocks, err := c.Extract(context.Background(), "whatever.pdf", 1)
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Len(t, blocks, 1)
}

func TestChain_AllEmptyReturnsEmpty(t *testing.T) {
	c := NewChain(fakeExtractor{}, fakeExtractor{})
	text, blocks, err := c.Extract(context.Background(), "whatever.pdf", 1)
	require.NoError(t, err)
	assert.Equal(t, "", text)
	assert.Nil(t, blocks)
}

func TestChain_AllFailingReturnsLastError(t *testing.T) {
	c := NewChain(fakeExtractor{err: errors.New("e1")}, fakeExtractor{err: errors.New("e2")})
	_, _, err := c.Extract(context.Background(), "whatever.pdf", 1)
	require.Error(t, err)
	assert.EqualError(t, err, "e2")
}
