// Package export serializes extracted constructs and scan results for
// external consumers: a SCIP index for code-navigation tooling, and
// JSON/YAML scan reports for CI pipelines. Large indexes can be wrapped in
// a zstd stream.
package export

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	scippb "github.com/sourcegraph/scip/bindings/go/scip"
	"google.golang.org/protobuf/proto"

	"codepin/internal/construct"
	"codepin/internal/errors"
	"codepin/internal/version"
)

// Document is one file's extracted constructs, ready for indexing
type Document struct {
	Path       string
	Language   string
	Constructs []construct.Construct
}

// BuildIndex assembles a SCIP index from extracted documents
func BuildIndex(projectRoot string, docs []Document) *scippb.Index {
	index := &scippb.Index{
		Metadata: &scippb.Metadata{
			Version: scippb.ProtocolVersion_UnspecifiedProtocolVersion,
			ToolInfo: &scippb.ToolInfo{
				Name:    "codepin",
				Version: version.Version,
			},
			ProjectRoot:          "file://" + projectRoot,
			TextDocumentEncoding: scippb.TextEncoding_UTF8,
		},
	}

	for _, doc := range docs {
		index.Documents = append(index.Documents, buildDocument(doc))
	}
	return index
}

func buildDocument(doc Document) *scippb.Document {
	out := &scippb.Document{
		RelativePath: doc.Path,
		Language:     doc.Language,
	}

	for i := range doc.Constructs {
		c := &doc.Constructs[i]
		symbol := scipSymbol(c)

		out.Symbols = append(out.Symbols, &scippb.SymbolInformation{
			Symbol:      symbol,
			DisplayName: c.Name(),
			Kind:        scipKind(c.Kind),
		})
		out.Occurrences = append(out.Occurrences, &scippb.Occurrence{
			// SCIP ranges are 0-based [startLine, startChar, endLine, endChar]
			Range:          []int32{int32(c.DefinitionLine - 1), 0, int32(c.DefinitionLine - 1), 0},
			Symbol:         symbol,
			SymbolRoles:    int32(scippb.SymbolRole_Definition),
			EnclosingRange: []int32{int32(c.StartLine - 1), 0, int32(c.EndLine - 1), 0},
		})
	}
	return out
}

// scipSymbol builds a global SCIP symbol: scheme, package (unversioned),
// then one descriptor per qualname segment. Containers use type
// descriptors, callables method descriptors, data members term descriptors.
func scipSymbol(c *construct.Construct) string {
	var b strings.Builder
	b.WriteString("codepin . . . ")

	segments := strings.Split(bareQualname(c.Qualname), ".")
	for i, seg := range segments {
		last := i == len(segments)-1
		if !last {
			b.WriteString(seg + "#")
			continue
		}
		switch c.Kind {
		case construct.KindClass, construct.KindInterface, construct.KindEnum:
			b.WriteString(seg + "#")
		case construct.KindMethod, construct.KindFunction:
			b.WriteString(seg + "().")
		default:
			b.WriteString(seg + ".")
		}
	}
	return b.String()
}

func bareQualname(qualname string) string {
	if i := strings.IndexByte(qualname, '('); i >= 0 {
		return qualname[:i]
	}
	return qualname
}

func scipKind(kind construct.Kind) scippb.SymbolInformation_Kind {
	switch kind {
	case construct.KindClass:
		return scippb.SymbolInformation_Class
	case construct.KindInterface:
		return scippb.SymbolInformation_Interface
	case construct.KindEnum:
		return scippb.SymbolInformation_Enum
	case construct.KindMethod:
		return scippb.SymbolInformation_Method
	case construct.KindFunction:
		return scippb.SymbolInformation_Function
	case construct.KindField:
		return scippb.SymbolInformation_Field
	case construct.KindVariable:
		return scippb.SymbolInformation_Variable
	default:
		return scippb.SymbolInformation_UnspecifiedKind
	}
}

// WriteIndex serializes the index to path. With compress set the protobuf
// payload is wrapped in a zstd stream and ".zst" is appended to the path.
func WriteIndex(index *scippb.Index, path string, compress bool) (string, error) {
	data, err := proto.Marshal(index)
	if err != nil {
		return "", errors.New(errors.InternalError, "encoding SCIP index", err)
	}

	if compress {
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return "", errors.New(errors.InternalError, "creating zstd encoder", err)
		}
		data = enc.EncodeAll(data, nil)
		enc.Close()
		path += ".zst"
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return "", errors.New(errors.StorageError, "creating export directory", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", errors.New(errors.StorageError, "writing SCIP index", err)
	}
	return path, nil
}

// ReadIndex loads an index written by WriteIndex, transparently handling
// zstd-compressed files by their .zst suffix
func ReadIndex(path string) (*scippb.Index, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- export path comes from config
	if err != nil {
		return nil, errors.New(errors.StorageError, "reading SCIP index", err)
	}

	if strings.HasSuffix(path, ".zst") {
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, errors.New(errors.InternalError, "creating zstd decoder", err)
		}
		defer dec.Close()
		data, err = dec.DecodeAll(data, nil)
		if err != nil {
			return nil, errors.New(errors.ParseError, "decompressing SCIP index", err)
		}
	}

	var index scippb.Index
	if err := proto.Unmarshal(data, &index); err != nil {
		return nil, errors.New(errors.ParseError, "decoding SCIP index", err)
	}
	return &index, nil
}
