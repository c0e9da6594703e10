package document

import (
	"github.com/archsync/archsync/pkg/errors"
)

// Reconcile merges the candidate section sequence into the remote
// document per the config's authority mode and returns the structural
// patch. A nil remote means the document does not exist yet and the
// candidate sequence is taken wholesale.
//
// An ambiguous stable-key collision or a malformed area-marker pairing
// is fatal for this document only.
func Reconcile(cfg Config, remote *RemoteDocument, candidates []Section) (*Patch, error) {
	patch := &Patch{
		Space:            cfg.Space,
		Name:             cfg.Name,
		HeadingNumbering: cfg.HeadingNumbering,
	}

	if remote == nil {
		if err := checkCandidateKeys(cfg, candidates); err != nil {
			return nil, err
		}
		patch.Create = true
		patch.Sections = append([]Section(nil), candidates...)
		if cfg.HeadingNumbering {
			NumberHeadings(patch.Sections, nil)
		}
		patch.Ops = diffOps(nil, patch.Sections)
		return patch, nil
	}

	var (
		final     []Section
		protected map[int]bool
		skipped   int
		err       error
	)
	switch cfg.Mode {
	case ModeMixed:
		final, protected, skipped, err = reconcileMixed(cfg, remote.Sections, candidates)
	default:
		final, skipped, err = reconcileRange(cfg, remote.Sections, candidates)
	}
	if err != nil {
		return nil, err
	}

	if cfg.HeadingNumbering {
		NumberHeadings(final, protected)
	}
	patch.Sections = final
	patch.Skipped = skipped
	patch.Ops = diffOps(remote.Sections, final)
	return patch, nil
}

// reconcileRange is the full-authority merge over one range: the
// candidate sequence replaces the remote one, but candidates matching
// a remote section by stable key inherit its remote identity, and the
// status gate preserves remote content whose status is outside the
// allow-list.
func reconcileRange(cfg Config, remote, candidates []Section) ([]Section, int, error) {
	if err := checkCandidateKeys(cfg, candidates); err != nil {
		return nil, 0, err
	}
	byKey := make(map[string]Section, len(remote))
	for _, section := range remote {
		if key := section.StableKey(); key != "" {
			if _, dup := byKey[key]; !dup {
				byKey[key] = section
			}
		}
	}

	final := make([]Section, 0, len(candidates))
	matched := make(map[string]bool, len(candidates))
	skipped := 0
	for _, candidate := range candidates {
		key := candidate.StableKey()
		existing, known := byKey[key]
		if key == "" || !known {
			final = append(final, candidate)
			continue
		}
		matched[key] = true
		if !statusAllowed(cfg, existing.Status) && differs(existing, candidate) {
			// Reviewed or released content stays as it is.
			final = append(final, existing)
			skipped++
			continue
		}
		candidate.RemoteID = existing.RemoteID
		candidate.Status = existing.Status
		final = append(final, candidate)
	}

	// The status gate also protects keyed remote sections the template
	// dropped: outside the allow-list they stay in place instead of
	// being deleted. Each one is spliced in after the nearest preceding
	// remote section that survived the merge, so preserved content does
	// not migrate to the end of the range. Free text without a stable
	// key is always replaced.
	for ri, section := range remote {
		key := section.StableKey()
		if key == "" || matched[key] || statusAllowed(cfg, section.Status) {
			continue
		}
		pos := 0
		for prev := ri - 1; prev >= 0; prev-- {
			if idx, ok := indexOfRemote(final, remote[prev].RemoteID); ok {
				pos = idx + 1
				break
			}
		}
		final = append(final, Section{})
		copy(final[pos+1:], final[pos:])
		final[pos] = section
		skipped++
	}
	return final, skipped, nil
}

// indexOfRemote finds the final position of the section backed by the
// given remote work item.
func indexOfRemote(sections []Section, remoteID string) (int, bool) {
	if remoteID == "" {
		return 0, false
	}
	for i, section := range sections {
		if section.RemoteID == remoteID {
			return i, true
		}
	}
	return 0, false
}

// reconcileMixed partitions the remote document into author-owned and
// system-owned ranges by area markers, keeps author ranges untouched
// and reconciles each system range against the corresponding candidate
// range. Returns the indices of author-owned sections so heading
// numbering leaves them alone.
func reconcileMixed(cfg Config, remote, candidates []Section) ([]Section, map[int]bool, int, error) {
	remoteSegments, err := segment(cfg, remote)
	if err != nil {
		return nil, nil, 0, err
	}
	candidateSegments, err := segment(cfg, candidates)
	if err != nil {
		return nil, nil, 0, err
	}

	var candidateAreas [][]Section
	for _, seg := range candidateSegments {
		if seg.system {
			candidateAreas = append(candidateAreas, seg.sections)
		}
	}
	remoteAreas := 0
	for _, seg := range remoteSegments {
		if seg.system {
			remoteAreas++
		}
	}
	if remoteAreas == 0 {
		return nil, nil, 0, errors.NewInvariantError("region-markers", cfg.Space+"/"+cfg.Name,
			"remote document has no system-owned areas to reconcile")
	}
	if remoteAreas != len(candidateAreas) {
		return nil, nil, 0, errors.NewInvariantError("region-markers", cfg.Space+"/"+cfg.Name,
			"remote and template disagree on the number of system-owned areas")
	}

	var final []Section
	protected := make(map[int]bool)
	skipped := 0
	area := 0
	for _, seg := range remoteSegments {
		if !seg.system {
			for _, section := range seg.sections {
				protected[len(final)] = true
				final = append(final, section)
			}
			continue
		}
		final = append(final, seg.start)
		merged, rangeSkipped, err := reconcileRange(cfg, seg.sections, candidateAreas[area])
		if err != nil {
			return nil, nil, 0, err
		}
		final = append(final, merged...)
		final = append(final, seg.end)
		skipped += rangeSkipped
		area++
	}
	return final, protected, skipped, nil
}

// segmentRange is one contiguous run of sections with a single owner.
// System ranges carry their delimiting markers.
type segmentRange struct {
	system     bool
	start, end Section
	sections   []Section
}

// segment splits a sequence at area markers. Nested or unpaired
// markers are a malformed pairing.
func segment(cfg Config, sections []Section) ([]segmentRange, error) {
	identity := cfg.Space + "/" + cfg.Name
	var segments []segmentRange
	current := segmentRange{}
	for _, section := range sections {
		switch section.Kind {
		case KindAreaStart:
			if current.system {
				return nil, errors.NewInvariantError("region-markers", identity,
					"area start inside an open area")
			}
			if len(current.sections) > 0 {
				segments = append(segments, current)
			}
			current = segmentRange{system: true, start: section}
		case KindAreaEnd:
			if !current.system {
				return nil, errors.NewInvariantError("region-markers", identity,
					"area end without a matching start")
			}
			current.end = section
			segments = append(segments, current)
			current = segmentRange{}
		default:
			current.sections = append(current.sections, section)
		}
	}
	if current.system {
		return nil, errors.NewInvariantError("region-markers", identity,
			"area start without a matching end")
	}
	if len(current.sections) > 0 {
		segments = append(segments, current)
	}
	return segments, nil
}

// checkCandidateKeys rejects two candidate sections claiming the same
// stable key.
func checkCandidateKeys(cfg Config, candidates []Section) error {
	seen := make(map[string]bool, len(candidates))
	for _, candidate := range candidates {
		key := candidate.StableKey()
		if key == "" {
			continue
		}
		if seen[key] {
			return errors.NewInvariantError("stable-key-uniqueness", cfg.Space+"/"+cfg.Name,
				"two candidate sections claim the stable key "+key)
		}
		seen[key] = true
	}
	return nil
}

// statusAllowed applies the config's status gate. Sections without a
// remote status are always writable.
func statusAllowed(cfg Config, status string) bool {
	if status == "" || len(cfg.StatusAllowList) == 0 {
		return true
	}
	for _, allowed := range cfg.StatusAllowList {
		if allowed == status {
			return true
		}
	}
	return false
}

// differs reports whether the candidate would change the externally
// visible content of the matched remote section.
func differs(existing, candidate Section) bool {
	if existing.Kind != candidate.Kind {
		return true
	}
	switch candidate.Kind {
	case KindHeading:
		return existing.Level != candidate.Level ||
			StripNumbering(existing.Text) != StripNumbering(candidate.Text)
	case KindText:
		return existing.Text != candidate.Text
	default:
		return false
	}
}
