package cmd

import (
	"errors"
	"fmt"
	"sort"

	"github.com/comiknet/comiknet/color"
	"github.com/comiknet/comiknet/dispatch"
	"github.com/comiknet/comiknet/style"
	levenshtein "github.com/ka-weihe/fast-levenshtein"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/samber/lo"
)

// closest returns the candidate nearest to target: a fuzzy match if there is one, otherwise the
// smallest edit distance.
func closest(target string, candidates []string) (string, bool) {
	if len(candidates) == 0 {
		return "", false
	}

	if ranks := fuzzy.RankFindFold(target, candidates); len(ranks) > 0 {
		sort.Sort(ranks)
		return ranks[0].Target, true
	}

	return lo.MinBy(candidates, func(a, b string) bool {
		return levenshtein.Distance(target, a) < levenshtein.Distance(target, b)
	}), true
}

// explainSourceErr adds a suggestion to errors about unknown sources.
func explainSourceErr(err error, src string, known []string) error {
	if !errors.Is(err, dispatch.ErrSourceNotFound) {
		return err
	}

	suggestion, ok := closest(src, known)
	if !ok {
		return err
	}

	return fmt.Errorf(
		"unknown source %s, did you mean %s?",
		style.Fg(color.Red)(src),
		style.Fg(color.Yellow)(suggestion),
	)
}
