package resolver

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-arena/engine/model"
)

var (
	defaultIdlePatterns   = []string{"idle", "stand", "breath", "loop"}
	defaultAttackPatterns = []string{"attack", "punch", "slash", "kick", "hit"}
	defaultRootPatterns   = []string{"root", "hips", "hip", "pelvis", "armature"}
)

// Result is the clip pair handed to a blend controller. Either clip may be nil; the
// reasons are listed in Diagnostics and are never fatal.
type Result struct {
	Idle        *model.Clip
	Attack      *model.Clip
	Diagnostics []error
}

// resolver is the implementation of the Resolver interface.
type resolver struct {
	idlePatterns   []string
	attackPatterns []string
	rootPatterns   []string
}

// Resolver picks an idle and an attack clip from two independently authored assets and
// makes them safe to play on one rendered skeleton. Every clip it returns is a fresh
// value with deep-copied tracks; the input clips are never modified.
type Resolver interface {
	// Resolve selects, strips and filters the clip pair.
	//
	// Parameters:
	//   - idleClips: the clips of the idle source asset
	//   - attackClips: the clips of the attack source asset
	//   - nodeNames: the node names of the rendered skeleton
	//
	// Returns:
	//   - Result: the resolved clips plus any diagnostics
	Resolve(idleClips, attackClips []*model.Clip, nodeNames map[string]struct{}) Result

	// SelectIdle returns the first clip matching an idle pattern, trying patterns in
	// order, or the longest clip when none match.
	//
	// Parameters:
	//   - clips: the candidates
	//
	// Returns:
	//   - *model.Clip: the selected source clip, or nil when clips is empty
	SelectIdle(clips []*model.Clip) *model.Clip

	// SelectAttack returns the first clip matching an attack pattern, trying patterns in
	// order, or the first clip when none match.
	//
	// Parameters:
	//   - clips: the candidates
	//
	// Returns:
	//   - *model.Clip: the selected source clip, or nil when clips is empty
	SelectAttack(clips []*model.Clip) *model.Clip

	// StripRootMotion returns a copy of clip without translation tracks on root-like
	// nodes. Stripping a stripped clip yields an equal clip.
	//
	// Parameters:
	//   - clip: the source clip
	//
	// Returns:
	//   - *model.Clip: the stripped copy
	//   - error: an error if the tracks could not be copied
	StripRootMotion(clip *model.Clip) (*model.Clip, error)

	// FilterToRig returns a copy of clip keeping only tracks whose target is in nodeNames.
	//
	// Parameters:
	//   - clip: the source clip
	//   - nodeNames: the rendered skeleton's node names
	//
	// Returns:
	//   - *model.Clip: the filtered copy, or nil when no track survives
	//   - error: *IncompatibleRigError when no track survives
	FilterToRig(clip *model.Clip, nodeNames map[string]struct{}) (*model.Clip, error)
}

var _ Resolver = &resolver{}

// NewResolver creates a new Resolver instance with the specified options applied.
//
// Parameters:
//   - options: a variadic list of ResolverBuilderOption functions to configure the Resolver
//
// Returns:
//   - Resolver: a new Resolver instance
func NewResolver(options ...ResolverBuilderOption) Resolver {
	r := &resolver{
		idlePatterns:   defaultIdlePatterns,
		attackPatterns: defaultAttackPatterns,
		rootPatterns:   defaultRootPatterns,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

func (r *resolver) Resolve(idleClips, attackClips []*model.Clip, nodeNames map[string]struct{}) Result {
	var res Result

	if src := r.SelectIdle(idleClips); src == nil {
		res.Diagnostics = append(res.Diagnostics, &NoAnimationError{Role: RoleIdle})
	} else {
		clip, err := r.rebuild(src, r.stripTracks(src.Tracks))
		if err != nil {
			res.Diagnostics = append(res.Diagnostics, err)
		}
		res.Idle = clip
	}

	src := r.SelectAttack(attackClips)
	if src == nil {
		res.Diagnostics = append(res.Diagnostics, &NoAnimationError{Role: RoleAttack})
		return res
	}
	kept, missing := filterTracks(r.stripTracks(src.Tracks), nodeNames)
	if len(kept) == 0 {
		res.Diagnostics = append(res.Diagnostics, &IncompatibleRigError{Clip: src.Name, Missing: missing})
		return res
	}
	clip, err := r.rebuild(src, kept)
	if err != nil {
		res.Diagnostics = append(res.Diagnostics, err)
	}
	res.Attack = clip
	return res
}

func (r *resolver) SelectIdle(clips []*model.Clip) *model.Clip {
	if c := firstMatch(clips, r.idlePatterns); c != nil {
		return c
	}
	var longest *model.Clip
	for _, c := range clips {
		if c != nil && (longest == nil || c.Duration > longest.Duration) {
			longest = c
		}
	}
	return longest
}

func (r *resolver) SelectAttack(clips []*model.Clip) *model.Clip {
	if c := firstMatch(clips, r.attackPatterns); c != nil {
		return c
	}
	for _, c := range clips {
		if c != nil {
			return c
		}
	}
	return nil
}

func (r *resolver) StripRootMotion(clip *model.Clip) (*model.Clip, error) {
	return r.rebuild(clip, r.stripTracks(clip.Tracks))
}

func (r *resolver) FilterToRig(clip *model.Clip, nodeNames map[string]struct{}) (*model.Clip, error) {
	kept, missing := filterTracks(clip.Tracks, nodeNames)
	if len(kept) == 0 {
		return nil, &IncompatibleRigError{Clip: clip.Name, Missing: missing}
	}
	return r.rebuild(clip, kept)
}

// --- Helpers ---

// rebuild makes a new clip with src's name and duration and a deep copy of tracks.
func (r *resolver) rebuild(src *model.Clip, tracks []model.Track) (*model.Clip, error) {
	view := model.Clip{Name: src.Name, Duration: src.Duration, Tracks: tracks}
	clip, err := view.Clone()
	if err != nil {
		return nil, fmt.Errorf("resolver: %w", err)
	}
	return clip, nil
}

func (r *resolver) stripTracks(tracks []model.Track) []model.Track {
	out := make([]model.Track, 0, len(tracks))
	for _, t := range tracks {
		if t.Property == model.PropertyTranslation && matchesAny(t.Target, r.rootPatterns) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// filterTracks keeps the tracks whose target is a rendered node and lists the missing targets.
func filterTracks(tracks []model.Track, nodeNames map[string]struct{}) (kept []model.Track, missing []string) {
	seen := make(map[string]bool)
	for _, t := range tracks {
		if _, ok := nodeNames[t.Target]; ok {
			kept = append(kept, t)
			continue
		}
		if !seen[t.Target] {
			seen[t.Target] = true
			missing = append(missing, t.Target)
		}
	}
	return kept, missing
}

// firstMatch tries each pattern in order against every clip, so an earlier pattern
// outranks an earlier clip.
func firstMatch(clips []*model.Clip, patterns []string) *model.Clip {
	for _, p := range patterns {
		for _, c := range clips {
			if c != nil && strings.Contains(strings.ToLower(c.Name), p) {
				return c
			}
		}
	}
	return nil
}

func matchesAny(name string, patterns []string) bool {
	lower := strings.ToLower(name)
	for _, p := range patterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
