// Package manager provides the record model and the backend abstraction shared
// by the system package tool, Flatpak and the pikman meta-manager.
package manager

import (
	"errors"
	"fmt"
	"strings"
)

// ManagerType represents the category of package manager.
type ManagerType string

const (
	// TypeNative is the distribution's own package tool (apt).
	TypeNative ManagerType = "native"
	// TypeUniversal is a cross-distribution application manager (flatpak).
	TypeUniversal ManagerType = "universal"
	// TypeMeta is a manager that proxies guest distribution formats (pikman).
	TypeMeta ManagerType = "meta"
)

// SourceTag records which package universe a search or listing result came from.
type SourceTag int

const (
	SourceSystem SourceTag = iota
	SourceAUR
	SourceFedora
	SourceAlpine
)

func (s SourceTag) String() string {
	switch s {
	case SourceAUR:
		return "AUR"
	case SourceFedora:
		return "Fedora"
	case SourceAlpine:
		return "Alpine"
	default:
		return "System"
	}
}

// MarshalText renders the tag by name in JSON and YAML output.
func (s SourceTag) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// PackageRecord is a package from the system tool or the meta-manager.
// Name is never empty for a record returned by a parser.
type PackageRecord struct {
	Name        string    `json:"name" yaml:"name"`
	Version     string    `json:"version" yaml:"version"`
	Description string    `json:"description" yaml:"description"`
	Size        string    `json:"size,omitempty" yaml:"size,omitempty"`
	Source      SourceTag `json:"source" yaml:"source"`
}

// FlatpakRecord is a Flatpak application. ApplicationID is its stable identity.
type FlatpakRecord struct {
	DisplayName   string `json:"name" yaml:"name"`
	Description   string `json:"description,omitempty" yaml:"description,omitempty"`
	Version       string `json:"version,omitempty" yaml:"version,omitempty"`
	ApplicationID string `json:"application_id" yaml:"application_id"`
}

// ErrInvalidAppID is returned for application IDs that are not reverse-DNS names.
var ErrInvalidAppID = errors.New("invalid application ID")

// ValidateAppID checks that id is usable as a Flatpak application identity.
func ValidateAppID(id string) error {
	if !strings.Contains(id, ".") || strings.ContainsAny(id, " \t") {
		return fmt.Errorf("%w: %q", ErrInvalidAppID, id)
	}
	return nil
}

// Validate reports whether the record may be used in an install or remove.
func (r FlatpakRecord) Validate() error {
	return ValidateAppID(r.ApplicationID)
}

// PackageDetail is the information shown before an install or remove is confirmed.
type PackageDetail struct {
	Name        string `json:"name" yaml:"name"`
	Version     string `json:"version" yaml:"version"`
	Description string `json:"description" yaml:"description"`
	Size        string `json:"size" yaml:"size"`
}

const (
	// UnknownValue is shown for detail fields the tool did not report.
	UnknownValue = "Unknown"
	// NoDescription is shown when the tool reported no description.
	NoDescription = "No description available"
)

// Hit is a search result from any registered manager, flattened for display.
type Hit struct {
	Manager     string `json:"manager" yaml:"manager"`
	ID          string `json:"id" yaml:"id"` // name passed to install and remove
	Name        string `json:"name" yaml:"name"`
	Version     string `json:"version,omitempty" yaml:"version,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Size        string `json:"size,omitempty" yaml:"size,omitempty"`
	Source      string `json:"source" yaml:"source"`
}

// Hit converts the record into a search hit attributed to manager.
func (r PackageRecord) Hit(manager string) Hit {
	return Hit{
		Manager:     manager,
		ID:          r.Name,
		Name:        r.Name,
		Version:     r.Version,
		Description: r.Description,
		Size:        r.Size,
		Source:      r.Source.String(),
	}
}

// Hit converts the record into a search hit attributed to flatpak.
func (r FlatpakRecord) Hit() Hit {
	return Hit{
		Manager:     "flatpak",
		ID:          r.ApplicationID,
		Name:        r.DisplayName,
		Version:     r.Version,
		Description: r.Description,
		Source:      "Flatpak",
	}
}
