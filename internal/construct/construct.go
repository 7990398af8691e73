// Package construct defines the normalized code-element schema shared by all
// language indexers and the change detector. Indexers translate raw syntax
// trees into Constructs; everything downstream operates on this schema only.
package construct

import "strings"

// Kind classifies an extracted code element
type Kind string

const (
	// KindVariable is a module/file-level variable or enum constant
	KindVariable Kind = "variable"
	// KindField is a container-level data member
	KindField Kind = "field"
	// KindMethod is a callable defined inside a container
	KindMethod Kind = "method"
	// KindFunction is a file-level callable
	KindFunction Kind = "function"
	// KindClass is a class declaration
	KindClass Kind = "class"
	// KindInterface is an interface declaration
	KindInterface Kind = "interface"
	// KindEnum is an enum declaration
	KindEnum Kind = "enum"
)

// ValidKinds lists every kind a subscription may name
var ValidKinds = []Kind{
	KindVariable, KindField, KindMethod, KindFunction,
	KindClass, KindInterface, KindEnum,
}

// IsValidKind reports whether s names a known construct kind
func IsValidKind(s string) bool {
	for _, k := range ValidKinds {
		if string(k) == s {
			return true
		}
	}
	return false
}

// Construct is one extracted, nameable code element from a single parse of a
// single file. It is a transient value: it carries no cross-call identity.
// Identity across revisions is established only through matching.
type Construct struct {
	Path string `json:"path"`
	Kind Kind   `json:"kind"`

	// Qualname is the dot-separated path within the file. Java methods
	// append a parenthesized parameter-type list to disambiguate overloads,
	// e.g. "Order.total(int,String)".
	Qualname string `json:"qualname"`

	// StartLine includes leading decorators/annotations; DefinitionLine is
	// the actual declaration line. 1-based, inclusive.
	StartLine      int `json:"startLine"`
	EndLine        int `json:"endLine"`
	DefinitionLine int `json:"definitionLine"`

	// InterfaceHash digests the type/signature surface; BodyHash digests
	// the normalized value or implementation.
	InterfaceHash string `json:"interfaceHash"`
	BodyHash      string `json:"bodyHash"`

	HasParseError bool `json:"hasParseError,omitempty"`

	// Visibility metadata recorded at extraction time so the detector never
	// has to re-inspect syntax. Private is per-language: leading underscore
	// in Python, an explicit private modifier in Java.
	Private bool `json:"private,omitempty"`

	// Bases holds the superclass/interface list for containers, used for
	// inheritance-change detection. Empty for non-containers.
	Bases []string `json:"bases,omitempty"`

	// Decorators holds the verbatim decorator/annotation lines, newest
	// parse only; consumed by decorator-change attribution.
	Decorators []string `json:"decorators,omitempty"`
}

// Name returns the last qualname segment (parameter list stripped)
func (c *Construct) Name() string {
	qn := c.Qualname
	if i := strings.IndexByte(qn, '('); i >= 0 {
		qn = qn[:i]
	}
	if i := strings.LastIndexByte(qn, '.'); i >= 0 {
		return qn[i+1:]
	}
	return qn
}

// MemberFingerprint is the baseline record kept per container member,
// keyed by an id relative to the container so a container rename does not
// invalidate every member.
type MemberFingerprint struct {
	Qualname      string `json:"qualname"` // relative to the container
	Kind          Kind   `json:"kind"`
	InterfaceHash string `json:"interfaceHash"`
	BodyHash      string `json:"bodyHash"`
}

// RelativeID strips the container qualname prefix from an absolute member
// qualname. A member of container "pkg.User" named "pkg.User.email" has
// relative id "email". Qualnames outside the container are returned as-is.
func RelativeID(memberQualname, containerQualname string) string {
	prefix := containerQualname + "."
	if strings.HasPrefix(memberQualname, prefix) {
		return memberQualname[len(prefix):]
	}
	return memberQualname
}

// FingerprintOf reduces a construct to its container-relative fingerprint
func FingerprintOf(c Construct, containerQualname string) MemberFingerprint {
	return MemberFingerprint{
		Qualname:      RelativeID(c.Qualname, containerQualname),
		Kind:          c.Kind,
		InterfaceHash: c.InterfaceHash,
		BodyHash:      c.BodyHash,
	}
}
