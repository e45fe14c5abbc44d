package catalog

import (
	"errors"
	"strings"
)

// Kind is the closed set of sellable item kinds. Each kind maps to its own
// table, its review type tag, its category enum and whether it can be carted.
type Kind string

const (
	KindAsset Kind = "Asset"
	KindGig   Kind = "Gig"
	KindGame  Kind = "Game"
)

var ErrUnknownKind = errors.New("unknown item kind")

type kindSpec struct {
	reviewType string
	cartable   bool
	categories []string
}

var kinds = map[Kind]kindSpec{
	KindAsset: {
		reviewType: "asset",
		cartable:   true,
		categories: []string{
			"3D Animation",
			"3D Models",
			"2D Animation",
			"2D Models",
			"Music",
			"Sound FX",
			"Particles",
			"Shaders",
		},
	},
	KindGig: {
		reviewType: "gig",
		cartable:   false,
		categories: []string{
			"Graphics & Design",
			"Programming & Tech",
			"Digital Marketing",
			"Music & Audio",
			"Video & Animation",
			"Writing & Translation",
			"Photography",
			"Consulting",
		},
	},
	KindGame: {
		reviewType: "game",
		cartable:   true,
		categories: []string{
			"Action",
			"Adventure",
			"Arcade",
			"Puzzle",
			"Racing",
			"RPG",
			"Simulation",
			"Strategy",
		},
	},
}

// ParseKind accepts the kind selector as it appears in routes and payloads
// ("Asset", "asset", "Assets"...) and normalizes it.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSuffix(strings.TrimSpace(s), "s")) {
	case "asset":
		return KindAsset, nil
	case "gig":
		return KindGig, nil
	case "game":
		return KindGame, nil
	}
	return "", ErrUnknownKind
}

// ParseReviewType maps a review item type tag ("asset"|"gig"|"game") to its kind.
func ParseReviewType(s string) (Kind, error) {
	for k, spec := range kinds {
		if spec.reviewType == s {
			return k, nil
		}
	}
	return "", ErrUnknownKind
}

func (k Kind) ReviewType() string { return kinds[k].reviewType }

func (k Kind) Cartable() bool { return kinds[k].cartable }

func (k Kind) ValidCategory(category string) bool {
	for _, c := range kinds[k].categories {
		if c == category {
			return true
		}
	}
	return false
}

func (k Kind) Categories() []string { return kinds[k].categories }
