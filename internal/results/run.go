package results

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// RunMeta identifies a run: the design it optimizes and what produced it.
type RunMeta struct {
	// GraphDOT is the derived design graph in DOT form.
	GraphDOT string

	// RuleSequence is the derivation that produced the design.
	RuleSequence []int

	// Seed is the run's base random seed.
	Seed uint64
}

// Run is a handle on one stored run. It implements episode.Recorder, so a
// driver can persist episodes as it produces them.
type Run struct {
	store *Store
	id    string
}

// NewRun inserts a run row and returns a handle for recording its episodes.
func (s *Store) NewRun(ctx context.Context, meta RunMeta) (*Run, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, graph, rule_sequence, seed)
		VALUES (?, ?, ?, ?)
	`,
		id,
		meta.GraphDOT,
		joinSequence(meta.RuleSequence),
		int64(meta.Seed),
	)
	if err != nil {
		return nil, fmt.Errorf("new run: %w", err)
	}
	return &Run{store: s, id: id}, nil
}

// ID returns the run's UUID.
func (r *Run) ID() string { return r.id }

// RecordEpisode persists one episode and its per-step rewards atomically.
// Uses ON CONFLICT DO NOTHING for idempotency - replaying the same episode
// index is silently ignored.
func (r *Run) RecordEpisode(ctx context.Context, idx int, totalReward float64, rewards, returns []float64) error {
	if len(rewards) != len(returns) {
		return fmt.Errorf("record episode %d: %d rewards but %d returns", idx, len(rewards), len(returns))
	}

	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record episode %d: begin tx: %w", idx, err)
	}
	defer tx.Rollback() // No-op if committed

	_, err = tx.ExecContext(ctx, `
		INSERT INTO episodes (run_id, idx, total_reward)
		VALUES (?, ?, ?)
		ON CONFLICT(run_id, idx) DO NOTHING
	`, r.id, idx, totalReward)
	if err != nil {
		return fmt.Errorf("record episode %d: %w", idx, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO steps (run_id, episode, step, reward, discounted_return)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(run_id, episode, step) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("record episode %d: %w", idx, err)
	}
	defer stmt.Close()

	for j := range rewards {
		if _, err := stmt.ExecContext(ctx, r.id, idx, j, rewards[j], returns[j]); err != nil {
			return fmt.Errorf("record episode %d step %d: %w", idx, j, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("record episode %d: commit: %w", idx, err)
	}
	return nil
}

func joinSequence(seq []int) string {
	parts := make([]string, len(seq))
	for i, v := range seq {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}
