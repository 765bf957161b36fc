package grammar

import (
	"regexp"
	"strings"
)

// Op is a task command family.
type Op int

const (
	OpComplete Op = iota + 1
	OpDelete
	OpPostpone
	OpAddTags
	OpRemoveTags
)

func (o Op) String() string {
	switch o {
	case OpComplete:
		return "complete"
	case OpDelete:
		return "delete"
	case OpPostpone:
		return "postpone"
	case OpAddTags:
		return "tags"
	case OpRemoveTags:
		return "untags"
	default:
		return "unknown"
	}
}

// Family lists the aliases of a task command.
type Family struct {
	Op         Op
	Aliases    []string
	NeedsParam bool

	legacy  *regexp.Regexp
	context *regexp.Regexp
}

// families is ordered; the first family whose pattern matches wins.
var families = []Family{
	newFamily(OpComplete, false, "C", "COMPLETE", "+", "++"),
	newFamily(OpDelete, false, "D", "DELETE", "-"),
	newFamily(OpPostpone, false, "P", "POSTPONE", ">"),
	newFamily(OpAddTags, true, "T", "TAGS", "#"),
	newFamily(OpRemoveTags, true, "-T", "-TAGS", "-#"),
}

// Families returns the task command families in matching order.
func Families() []Family {
	out := make([]Family, len(families))
	copy(out, families)
	return out
}

func newFamily(op Op, needsParam bool, aliases ...string) Family {
	quoted := make([]string, len(aliases))
	for i, a := range aliases {
		quoted[i] = regexp.QuoteMeta(a)
	}
	alt := `^(?:` + strings.Join(quoted, "|") + `)\s+`

	param := ""
	if needsParam {
		param = `(\s+.+)`
	}

	return Family{
		Op:         op,
		Aliases:    aliases,
		NeedsParam: needsParam,
		legacy:     regexp.MustCompile(alt + `#?(\d+)-(\d+)-(\d+)` + param + `$`),
		context:    regexp.MustCompile(alt + `(\d+(?:\s*,\s*\d+)*)` + param + `$`),
	}
}
