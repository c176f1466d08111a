package results

import (
	"context"
	"fmt"
)

// RunRecord is a stored run row.
type RunRecord struct {
	ID           string
	CreatedAt    string
	GraphDOT     string
	RuleSequence string
	Seed         int64
}

// EpisodeRecord is a stored episode row.
type EpisodeRecord struct {
	RunID       string
	Index       int
	TotalReward float64
}

// StepRecord is one planning step of a stored episode.
type StepRecord struct {
	Episode          int
	Step             int
	Reward           float64
	DiscountedReturn float64
}

// Runs lists all stored runs, newest first.
func (s *Store) Runs(ctx context.Context) ([]RunRecord, error) {
	rows, err := s.Query(ctx, `
		SELECT id, created_at, graph, rule_sequence, seed
		FROM runs
		ORDER BY created_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var r RunRecord
		if err := rows.Scan(&r.ID, &r.CreatedAt, &r.GraphDOT, &r.RuleSequence, &r.Seed); err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Episodes lists a run's episodes in order.
func (s *Store) Episodes(ctx context.Context, runID string) ([]EpisodeRecord, error) {
	rows, err := s.Query(ctx, `
		SELECT run_id, idx, total_reward
		FROM episodes
		WHERE run_id = ?
		ORDER BY idx
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("list episodes: %w", err)
	}
	defer rows.Close()

	var out []EpisodeRecord
	for rows.Next() {
		var e EpisodeRecord
		if err := rows.Scan(&e.RunID, &e.Index, &e.TotalReward); err != nil {
			return nil, fmt.Errorf("list episodes: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Steps lists one episode's per-step rewards and returns in step order.
func (s *Store) Steps(ctx context.Context, runID string, episode int) ([]StepRecord, error) {
	rows, err := s.Query(ctx, `
		SELECT episode, step, reward, discounted_return
		FROM steps
		WHERE run_id = ? AND episode = ?
		ORDER BY step
	`, runID, episode)
	if err != nil {
		return nil, fmt.Errorf("list steps: %w", err)
	}
	defer rows.Close()

	var out []StepRecord
	for rows.Next() {
		var st StepRecord
		if err := rows.Scan(&st.Episode, &st.Step, &st.Reward, &st.DiscountedReturn); err != nil {
			return nil, fmt.Errorf("list steps: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}
