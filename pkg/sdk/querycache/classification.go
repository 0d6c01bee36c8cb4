package querycache

import (
	"context"

	"github.com/clinicdesk/clinic/pkg/sdk"
)

var historyKey = NamedKey(ResourceAI, "history")

// History lists the caller's past classifications.
func (q *Queries) History(ctx context.Context) ([]sdk.HistoryItem, error) {
	return Fetch(ctx, q.cache, historyKey, q.client.ClassificationHistory)
}

// Analysis fetches one stored classification.
func (q *Queries) Analysis(ctx context.Context, id int64) (*sdk.HistoryItem, error) {
	return Fetch(ctx, q.cache, EntityKey(ResourceAI, id), func(ctx context.Context) (*sdk.HistoryItem, error) {
		return q.client.GetClassification(ctx, id)
	})
}

// Classify uploads an image and invalidates the history.
func (q *Queries) Classify(ctx context.Context, upload sdk.ImageUpload) (*sdk.AnalysisResult, error) {
	return Mutate(ctx, q.cache, Mutation{
		Resource:   ResourceAI,
		Op:         OpCreate,
		Invalidate: []Key{historyKey},
	}, func(ctx context.Context) (*sdk.AnalysisResult, error) {
		return q.client.Classify(ctx, upload)
	})
}

// DeleteAnalysis removes a classification, splicing it out of the cached
// history first.
func (q *Queries) DeleteAnalysis(ctx context.Context, id int64) error {
	_, err := Mutate(ctx, q.cache, Mutation{
		Resource: ResourceAI,
		Op:       OpDelete,
		Patches: []Patch{
			RemoveWhere(historyKey, func(h sdk.HistoryItem) bool { return h.ID == id }),
		},
		Invalidate: []Key{historyKey, EntityKey(ResourceAI, id)},
	}, deleteOnly(func(ctx context.Context) error {
		return q.client.DeleteClassification(ctx, id)
	}))
	return err
}
