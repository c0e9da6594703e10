package document_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archsync/archsync/pkg/document"
	"github.com/archsync/archsync/pkg/errors"
)

func fullConfig() document.Config {
	return document.Config{Space: "_default", Name: "caps", Mode: document.ModeFull}
}

func heading(level int, text, remoteID string) document.Section {
	return document.Section{Kind: document.KindHeading, Level: level, Text: text, RemoteID: remoteID}
}

func text(content, remoteID string) document.Section {
	return document.Section{Kind: document.KindText, Text: content, RemoteID: remoteID}
}

func ref(key, remoteID string) document.Section {
	return document.Section{Kind: document.KindWorkItemRef, ExternalKey: key, RemoteID: remoteID}
}

func marker(kind document.Kind, remoteID string) document.Section {
	return document.Section{Kind: kind, RemoteID: remoteID}
}

func TestReconcileCreate(t *testing.T) {
	candidates := []document.Section{
		heading(1, "Capabilities", ""),
		text("<p>Intro</p>", ""),
		ref("uuid-1", "WI-1"),
	}
	patch, err := document.Reconcile(fullConfig(), nil, candidates)
	require.NoError(t, err)

	assert.True(t, patch.Create)
	assert.Len(t, patch.Sections, 3)
	for _, op := range patch.Ops {
		assert.Equal(t, document.OpInsert, op.Kind)
	}
}

func TestReconcileFullAuthority(t *testing.T) {
	remote := &document.RemoteDocument{
		Space: "_default", Name: "caps",
		Sections: []document.Section{
			heading(1, "Capabilities", "WI-H1"),
			text("<p>old intro</p>", "WI-T1"),
			ref("uuid-1", "WI-1"),
			heading(1, "Dropped chapter", "WI-H2"),
		},
	}
	candidates := []document.Section{
		heading(1, "Capabilities", ""),
		text("<p>new intro</p>", ""),
		ref("uuid-1", "WI-1"),
	}

	patch, err := document.Reconcile(fullConfig(), remote, candidates)
	require.NoError(t, err)
	require.Len(t, patch.Sections, 3)

	t.Run("stable keys preserve remote identity", func(t *testing.T) {
		assert.Equal(t, "WI-H1", patch.Sections[0].RemoteID)
		assert.Equal(t, "WI-1", patch.Sections[2].RemoteID)
	})

	t.Run("free text is always replaced", func(t *testing.T) {
		assert.Equal(t, "<p>new intro</p>", patch.Sections[1].Text)
		assert.Empty(t, patch.Sections[1].RemoteID)
	})

	t.Run("ops delete dropped remote sections", func(t *testing.T) {
		var deleted []string
		for _, op := range patch.Ops {
			if op.Kind == document.OpDelete {
				deleted = append(deleted, op.Section.RemoteID)
			}
		}
		assert.ElementsMatch(t, []string{"WI-H2", "WI-T1"}, deleted)
	})
}

func TestReconcileStatusGate(t *testing.T) {
	released := heading(1, "Reviewed chapter", "WI-H1")
	released.Status = "released"
	remote := &document.RemoteDocument{
		Space: "_default", Name: "caps",
		Sections: []document.Section{
			released,
			heading(1, "Draft chapter", "WI-H2"),
		},
	}
	// The template dropped both chapters.
	candidates := []document.Section{heading(1, "New chapter", "")}

	t.Run("released content survives the template", func(t *testing.T) {
		cfg := fullConfig()
		cfg.StatusAllowList = []string{"draft"}
		patch, err := document.Reconcile(cfg, remote, candidates)
		require.NoError(t, err)

		// The released chapter led the remote document, so it stays in
		// front of the new content.
		require.Len(t, patch.Sections, 2)
		assert.Equal(t, "WI-H1", patch.Sections[0].RemoteID)
		assert.Equal(t, "New chapter", patch.Sections[1].Text)
		assert.Equal(t, 1, patch.Skipped)

		var deleted []string
		for _, op := range patch.Ops {
			if op.Kind == document.OpDelete {
				deleted = append(deleted, op.Section.RemoteID)
			}
		}
		assert.Equal(t, []string{"WI-H2"}, deleted)
	})

	t.Run("preserved content keeps its position", func(t *testing.T) {
		released := heading(1, "Reviewed", "WI-H2")
		released.Status = "released"
		remote := &document.RemoteDocument{
			Space: "_default", Name: "caps",
			Sections: []document.Section{
				heading(1, "Keep A", "WI-H1"),
				released,
				heading(1, "Keep B", "WI-H3"),
			},
		}
		candidates := []document.Section{
			heading(1, "Keep A", ""),
			heading(1, "Keep B", ""),
		}

		cfg := fullConfig()
		cfg.StatusAllowList = []string{"draft"}
		patch, err := document.Reconcile(cfg, remote, candidates)
		require.NoError(t, err)

		require.Len(t, patch.Sections, 3)
		assert.Equal(t, "WI-H1", patch.Sections[0].RemoteID)
		assert.Equal(t, "WI-H2", patch.Sections[1].RemoteID, "reviewed chapter stays between its neighbors")
		assert.Equal(t, "WI-H3", patch.Sections[2].RemoteID)
	})

	t.Run("empty allow list gates nothing", func(t *testing.T) {
		patch, err := document.Reconcile(fullConfig(), remote, candidates)
		require.NoError(t, err)
		require.Len(t, patch.Sections, 1)
		assert.Equal(t, 0, patch.Skipped)
	})
}

func TestReconcileStableKeyCollision(t *testing.T) {
	candidates := []document.Section{
		heading(1, "Same", ""),
		heading(1, "Same", ""),
	}
	_, err := document.Reconcile(fullConfig(), nil, candidates)
	require.Error(t, err)
	assert.True(t, errors.IsInvariant(err))
}

func TestReconcileMixedAuthority(t *testing.T) {
	cfg := fullConfig()
	cfg.Mode = document.ModeMixed

	authorBefore := text("<p>author notes before</p>", "WI-A1")
	authorAfter := text("<p>author notes after</p>", "WI-A2")
	remote := &document.RemoteDocument{
		Space: "_default", Name: "caps",
		Sections: []document.Section{
			authorBefore,
			marker(document.KindAreaStart, "WI-M1"),
			heading(1, "Generated", "WI-H1"),
			text("<p>old generated</p>", "WI-T1"),
			marker(document.KindAreaEnd, "WI-M2"),
			authorAfter,
		},
	}
	candidates := []document.Section{
		marker(document.KindAreaStart, ""),
		heading(1, "Generated", ""),
		text("<p>new generated</p>", ""),
		marker(document.KindAreaEnd, ""),
	}

	patch, err := document.Reconcile(cfg, remote, candidates)
	require.NoError(t, err)
	require.Len(t, patch.Sections, 6)

	t.Run("author content is byte identical", func(t *testing.T) {
		assert.Equal(t, authorBefore, patch.Sections[0])
		assert.Equal(t, authorAfter, patch.Sections[5])
	})

	t.Run("system range is reconciled", func(t *testing.T) {
		assert.Equal(t, "WI-H1", patch.Sections[2].RemoteID)
		assert.Equal(t, "<p>new generated</p>", patch.Sections[3].Text)
	})

	t.Run("markers come from the remote document", func(t *testing.T) {
		assert.Equal(t, "WI-M1", patch.Sections[1].RemoteID)
		assert.Equal(t, "WI-M2", patch.Sections[4].RemoteID)
	})
}

func TestReconcileMixedMarkerErrors(t *testing.T) {
	cfg := fullConfig()
	cfg.Mode = document.ModeMixed

	t.Run("unpaired start is fatal", func(t *testing.T) {
		remote := &document.RemoteDocument{
			Space: "_default", Name: "caps",
			Sections: []document.Section{marker(document.KindAreaStart, "WI-M1")},
		}
		_, err := document.Reconcile(cfg, remote, nil)
		require.Error(t, err)
		assert.True(t, errors.IsInvariant(err))
	})

	t.Run("end without start is fatal", func(t *testing.T) {
		remote := &document.RemoteDocument{
			Space: "_default", Name: "caps",
			Sections: []document.Section{marker(document.KindAreaEnd, "WI-M1")},
		}
		_, err := document.Reconcile(cfg, remote, nil)
		assert.Error(t, err)
	})

	t.Run("area count mismatch is fatal", func(t *testing.T) {
		remote := &document.RemoteDocument{
			Space: "_default", Name: "caps",
			Sections: []document.Section{
				marker(document.KindAreaStart, "WI-M1"),
				marker(document.KindAreaEnd, "WI-M2"),
			},
		}
		candidates := []document.Section{
			marker(document.KindAreaStart, ""),
			marker(document.KindAreaEnd, ""),
			marker(document.KindAreaStart, ""),
			marker(document.KindAreaEnd, ""),
		}
		_, err := document.Reconcile(cfg, remote, candidates)
		assert.Error(t, err)
	})
}

func TestHeadingNumbering(t *testing.T) {
	cfg := fullConfig()
	cfg.HeadingNumbering = true

	candidates := []document.Section{
		heading(1, "First", ""),
		heading(2, "Nested", ""),
		heading(2, "Second nested", ""),
		heading(1, "Second", ""),
	}
	patch, err := document.Reconcile(cfg, nil, candidates)
	require.NoError(t, err)

	assert.Equal(t, "1 First", patch.Sections[0].Text)
	assert.Equal(t, "1.1 Nested", patch.Sections[1].Text)
	assert.Equal(t, "1.2 Second nested", patch.Sections[2].Text)
	assert.Equal(t, "2 Second", patch.Sections[3].Text)
}

func TestHeadingNumberingSurvivesRerun(t *testing.T) {
	cfg := fullConfig()
	cfg.HeadingNumbering = true

	remote := &document.RemoteDocument{
		Space: "_default", Name: "caps",
		Sections: []document.Section{heading(1, "1 Capabilities", "WI-H1")},
	}
	candidates := []document.Section{heading(1, "Capabilities", "")}

	patch, err := document.Reconcile(cfg, remote, candidates)
	require.NoError(t, err)
	// The numbered remote heading still matches by stripped key.
	assert.Equal(t, "WI-H1", patch.Sections[0].RemoteID)
	assert.Equal(t, "1 Capabilities", patch.Sections[0].Text)
}

func TestPatchUpserts(t *testing.T) {
	candidates := []document.Section{
		heading(1, "Capabilities", ""),
		ref("uuid-1", "WI-1"),
	}
	patch, err := document.Reconcile(fullConfig(), nil, candidates)
	require.NoError(t, err)

	upserts := patch.Upserts()
	require.Len(t, upserts, 1)
	assert.Equal(t, document.TypeHeading, upserts[0].Type)
	assert.Equal(t, "Capabilities", upserts[0].Title)

	patch.Assign(map[string]string{upserts[0].ExternalKey: "WI-NEW"})
	assert.Equal(t, "WI-NEW", patch.Sections[0].RemoteID)
	assert.Empty(t, patch.Upserts(), "assigned sections need no further upsert")
}
