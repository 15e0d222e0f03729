package ui

import (
	"errors"
	"fmt"
	"strings"

	"birdnest/pkg/manager"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/manifoldco/promptui"
)

// ErrNothingToSelect is returned when a selection prompt has no items.
var ErrNothingToSelect = errors.New("nothing to select from")

// Confirm asks a yes/no question. Interrupting the prompt answers no.
func Confirm(prompt string, defaultYes bool) (bool, error) {
	label := prompt
	if defaultYes {
		label += " [Y/n]"
	} else {
		label += " [y/N]"
	}

	p := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}
	if defaultYes {
		p.Default = "y"
	}

	result, err := p.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrInterrupt) {
			return false, err
		}
		// promptui reports a "no" answer to a confirm prompt as ErrAbort
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		return defaultYes, nil
	}

	return answer(result, defaultYes), nil
}

func answer(result string, defaultYes bool) bool {
	result = strings.ToLower(strings.TrimSpace(result))
	if result == "" {
		return defaultYes
	}
	return result == "y" || result == "yes"
}

// hitSearcher filters the select list by fuzzy-matching the typed input
// against the hit's ID and display name.
func hitSearcher(hits []manager.Hit) func(input string, index int) bool {
	return func(input string, index int) bool {
		input = strings.TrimSpace(input)
		if input == "" {
			return true
		}
		h := hits[index]
		return fuzzy.MatchNormalizedFold(input, h.ID) || fuzzy.MatchNormalizedFold(input, h.Name)
	}
}

// SelectHit lets the user pick one search result. A single hit is returned
// without prompting.
func SelectHit(hits []manager.Hit, prompt string) (*manager.Hit, error) {
	switch len(hits) {
	case 0:
		return nil, ErrNothingToSelect
	case 1:
		return &hits[0], nil
	}

	arrow, check := "▸", "✓"
	if !UseUnicode {
		arrow, check = ">", "*"
	}

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   arrow + " {{ .ID | cyan }} {{ .Version | green }} [{{ .Source | magenta }}]",
		Inactive: "  {{ .ID }} {{ .Version | faint }} [{{ .Source | faint }}]",
		Selected: check + " {{ .ID | cyan }} [{{ .Source | magenta }}]",
		Details: `
--------- Package ----------
{{ "Name:" | faint }}	{{ .Name }}
{{ "Version:" | faint }}	{{ .Version }}
{{ "Source:" | faint }}	{{ .Source }} ({{ .Manager }})
{{ "Description:" | faint }}	{{ .Description }}`,
	}

	p := promptui.Select{
		Label:     prompt,
		Items:     hits,
		Templates: templates,
		Size:      10,
		Searcher:  hitSearcher(hits),
	}

	index, _, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("selection cancelled: %w", err)
	}
	return &hits[index], nil
}
