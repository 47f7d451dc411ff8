package typeid

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

const (
	PrefixUser     = "user"
	PrefixLayout   = "layout"
	PrefixItem     = "item"
	PrefixSnapshot = "snap"
	PrefixOp       = "op"
	PrefixAsset    = "asset"
	PrefixClip     = "clip"
	PrefixExport   = "exp"
	PrefixSession  = "sess"
)

func New(prefix string) string {
	id := typeid.MustGenerate(prefix)
	return id.String()
}

func NewUserID() string     { return New(PrefixUser) }
func NewLayoutID() string   { return New(PrefixLayout) }
func NewItemID() string     { return New(PrefixItem) }
func NewSnapshotID() string { return New(PrefixSnapshot) }
func NewOpID() string       { return New(PrefixOp) }
func NewAssetID() string    { return New(PrefixAsset) }
func NewClipID() string     { return New(PrefixClip) }
func NewExportID() string   { return New(PrefixExport) }
func NewSessionID() string  { return New(PrefixSession) }

func Validate(id, expectedPrefix string) error {
	parsed, err := typeid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid typeid %q: %w", id, err)
	}
	if parsed.Prefix() != expectedPrefix {
		return fmt.Errorf("expected prefix %q but got %q in id %q", expectedPrefix, parsed.Prefix(), id)
	}
	return nil
}
