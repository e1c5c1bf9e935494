package logger

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/libp2p/go-libp2p/core/peer"
)

// attrFormatter is the signature of slog.HandlerOptions.ReplaceAttr.
type attrFormatter func(groups []string, a slog.Attr) slog.Attr

/*
composeAttrFmt chains the formatters, the output of one is input of the next.
Nil formatters are skipped, returns nil when there is nothing to apply.
*/
func composeAttrFmt(f ...attrFormatter) attrFormatter {
	var chain []attrFormatter
	for _, fn := range f {
		if fn != nil {
			chain = append(chain, fn)
		}
	}
	switch len(chain) {
	case 0:
		return nil
	case 1:
		return chain[0]
	}
	return func(groups []string, a slog.Attr) slog.Attr {
		for _, fn := range chain {
			a = fn(groups, a)
		}
		return a
	}
}

func formatTimeAttr(format string) attrFormatter {
	switch format {
	case "":
		return nil
	case "none":
		return func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.Attr{}
			}
			return a
		}
	}
	return func(groups []string, a slog.Attr) slog.Attr {
		if a.Key != slog.TimeKey || len(groups) != 0 {
			return a
		}
		if t := a.Value.Time(); !t.IsZero() {
			a.Value = slog.StringValue(t.Format(format))
		}
		return a
	}
}

/*
formatIDAttr handles node IDs and account addresses according to "format":
  - "none": node IDs are dropped (addresses are kept, they identify the transaction);
  - "short": both are shortened to the first and last characters;
  - anything else: the handler's default, ie full length.
*/
func formatIDAttr(format string) attrFormatter {
	switch format {
	case "none":
		return func(groups []string, a slog.Attr) slog.Attr {
			if isNodeID(a) {
				return slog.Attr{}
			}
			return a
		}
	case "short":
		return func(groups []string, a slog.Attr) slog.Attr {
			switch {
			case isNodeID(a):
				a.Value = slog.StringValue(shortID(a.Value.Any().(peer.ID).String(), 2))
			case a.Key == AddressKey && a.Value.Kind() == slog.KindString:
				a.Value = slog.StringValue(shortID(a.Value.String(), 6))
			}
			return a
		}
	default:
		return nil
	}
}

func isNodeID(a slog.Attr) bool {
	if a.Value.Kind() != slog.KindAny {
		return false
	}
	_, ok := a.Value.Any().(peer.ID)
	return ok
}

// shortID keeps "prefix" leading and six trailing characters of "id".
func shortID(id string, prefix int) string {
	if len(id) <= prefix+8 {
		return id
	}
	return fmt.Sprintf("%s*%s", id[:prefix], id[len(id)-6:])
}

func formatDataAttrAsJSON(groups []string, a slog.Attr) slog.Attr {
	if a.Key != DataKey || a.Value.Kind() != slog.KindAny {
		return a
	}
	if b, err := json.Marshal(a.Value.Any()); err == nil {
		a.Value = slog.StringValue(string(b))
	}
	return a
}

/*
formatAttrBrief keeps only the attributes a user of the CLI is interested in:
the message with its level, the error and the location of the transaction.
*/
func formatAttrBrief(groups []string, a slog.Attr) slog.Attr {
	switch a.Key {
	case slog.LevelKey, slog.MessageKey, ErrorKey, SectionKey, IndexKey:
		return a
	}
	return slog.Attr{}
}

// formatAttrECS maps the well known attributes to the Elastic Common Schema fields.
func formatAttrECS(groups []string, a slog.Attr) slog.Attr {
	if len(groups) != 0 {
		return a
	}
	switch a.Key {
	case slog.MessageKey:
		return slog.String("message", a.Value.String())
	case slog.SourceKey:
		src, ok := a.Value.Any().(*slog.Source)
		if !ok {
			return a
		}
		fn := trimFuncName(src.Function)
		return slog.Group("log", slog.Group("origin",
			slog.String("function", fn),
			slog.Group("file", slog.String("name", src.File), slog.Int("line", src.Line)),
		))
	case NodeIDKey:
		return slog.Group("host", slog.Any("id", a.Value))
	case AddressKey:
		return slog.Group("user", slog.Any("id", a.Value))
	case SectionKey:
		return slog.Group("event", slog.String("category", a.Value.String()))
	case ErrorKey:
		return slog.Group("error", slog.Any("message", a.Value.Any()))
	case DataKey:
		// values of different types under the same key would conflict in the index
		return slog.Group(DataKey, slog.Any(dataName(a.Value), a.Value))
	}
	return a
}

/*
dataName returns the name of the type of "v" usable as JSON key: pointer
types have the same name as the type they point to and the package separator
"." is replaced with "_".
*/
func dataName(v slog.Value) string {
	if k := v.Kind(); k != slog.KindAny && k != slog.KindLogValuer {
		return k.String()
	}
	name := reflect.TypeOf(v.Any()).String()
	return strings.ReplaceAll(strings.TrimLeft(name, "*"), ".", "_")
}

// trimFuncName strips the package path from the function name, ie
// "github.com/alphabill-org/pregenesis/genesis.Validate.func1" becomes "Validate.func1".
func trimFuncName(fn string) string {
	_, fn = filepath.Split(fn)
	if _, name, ok := strings.Cut(fn, "."); ok {
		return name
	}
	return fn
}
