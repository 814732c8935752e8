package sequencer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/joho/godotenv"

	cgerrors "github.com/duynguyendang/contentgraph/pkg/common/errors"
	"github.com/duynguyendang/contentgraph/pkg/namespace"
	"github.com/duynguyendang/contentgraph/pkg/value"
)

// Names written by PropertiesSequencer.
var (
	PrimaryTypeName  = value.NewName(namespace.JcrURI, "primaryType")
	UnstructuredName = value.NewName(namespace.NtURI, "unstructured")
	EntriesName      = value.NewName(namespace.ModeURI, "entries")
)

// PropertiesSequencer reads KEY=VALUE input (.env or .properties style) and
// writes one node under the input path holding every entry as a string
// property named by the key in the blank namespace.
type PropertiesSequencer struct {
	// NodeName is the child created under the input path. Defaults to
	// mode:entries.
	NodeName value.Name
}

var _ Sequencer = PropertiesSequencer{}

func (s PropertiesSequencer) Sequence(ctx context.Context, input io.Reader, out Output, sc *Context) error {
	if sc == nil || sc.Values == nil {
		return fmt.Errorf("%w: sequencer context needs value factories", cgerrors.ErrInvalidInput)
	}
	entries, err := godotenv.Parse(input)
	if err != nil {
		return cgerrors.IOError("parse properties", err)
	}

	base := sc.InputPath
	if base == nil {
		base = value.RootPath
	}
	nodeName := s.NodeName
	if nodeName == (value.Name{}) {
		nodeName = EntriesName
	}
	paths := sc.Values.Paths()
	node, err := paths.CreateChild(base, nodeName, 1)
	if err != nil {
		return err
	}
	if err := out.SetProperty(node, PrimaryTypeName, UnstructuredName); err != nil {
		return err
	}

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := out.SetProperty(node, value.NewName("", k), entries[k]); err != nil {
			return fmt.Errorf("entry %s: %w", k, err)
		}
	}
	slog.Debug("sequenced properties", "node", node.String(), "entries", len(keys))
	return nil
}
