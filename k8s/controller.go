// Package k8s provides a Kubernetes controller that runs SimilarityEvaluation CRs.
package k8s

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/klejdi94/simeval/core"
	"github.com/klejdi94/simeval/embedder"
	"github.com/klejdi94/simeval/evaluator"
	"github.com/klejdi94/simeval/k8s/api/v1"
	"github.com/klejdi94/simeval/quantize"
	"github.com/klejdi94/simeval/results"
	"github.com/klejdi94/simeval/similarity"
	"k8s.io/apimachinery/pkg/runtime"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/log"
)

// ModelFactory builds the embedding model an evaluation runs against.
type ModelFactory func(ctx context.Context, spec v1.SimilarityEvaluationSpec) (embedder.Model, error)

// BackendModelFactory builds a batching Encoder over the backend named in the spec.
func BackendModelFactory(ctx context.Context, spec v1.SimilarityEvaluationSpec) (embedder.Model, error) {
	b, err := embedder.NewBackend(embedder.BackendConfig{
		Kind:       spec.Backend,
		Model:      spec.Model,
		BaseURL:    spec.BaseURL,
		Dimensions: spec.Dimensions,
	})
	if err != nil {
		return nil, err
	}
	return embedder.NewEncoder(b), nil
}

// SimilarityEvaluationReconciler evaluates the model described by each CR once per generation.
type SimilarityEvaluationReconciler struct {
	client.Client
	Scheme *runtime.Scheme
	Models ModelFactory
	// Store optionally records every result row.
	Store results.Store
}

// Reconcile runs the evaluation and writes the scores to status.
func (r *SimilarityEvaluationReconciler) Reconcile(ctx context.Context, req ctrl.Request) (ctrl.Result, error) {
	logger := log.FromContext(ctx)
	cr := &v1.SimilarityEvaluation{}
	if err := r.Get(ctx, req.NamespacedName, cr); err != nil {
		return ctrl.Result{}, client.IgnoreNotFound(err)
	}
	if cr.Status.LastRunTime != "" && cr.Status.ObservedGeneration == cr.Generation {
		return ctrl.Result{}, nil
	}

	row, err := r.evaluate(ctx, cr)
	if err != nil {
		logger.Error(err, "evaluation failed")
		cr.Status.Message = err.Error()
		_ = r.Status().Update(ctx, cr)
		if errors.Is(err, core.ErrConfig) || errors.Is(err, core.ErrValidation) || errors.Is(err, core.ErrUnknownPrecision) {
			return ctrl.Result{}, nil
		}
		return ctrl.Result{}, err
	}

	cr.Status.Score = formatScore(row.Score)
	cr.Status.MSECosine = formatScore(row.MSECosine)
	cr.Status.MSEEuclidean = formatScore(row.MSEEuclidean)
	cr.Status.MSEManhattan = formatScore(row.MSEManhattan)
	cr.Status.MSEDot = formatScore(row.MSEDot)
	cr.Status.RunID = row.RunID
	cr.Status.LastRunTime = row.At.Format(time.RFC3339)
	cr.Status.ObservedGeneration = cr.Generation
	cr.Status.Message = ""
	if err := r.Status().Update(ctx, cr); err != nil {
		return ctrl.Result{}, err
	}
	logger.Info("evaluated embedding model", "name", row.Evaluator, "score", cr.Status.Score, "pairs", len(cr.Spec.Pairs))
	return ctrl.Result{}, nil
}

func (r *SimilarityEvaluationReconciler) evaluate(ctx context.Context, cr *v1.SimilarityEvaluation) (results.Row, error) {
	spec := cr.Spec
	prec, err := quantize.ParsePrecision(spec.Precision)
	if err != nil {
		return results.Row{}, err
	}
	fn, err := similarity.ParseFunction(spec.MainSimilarity)
	if err != nil {
		return results.Row{}, err
	}
	name := spec.Name
	if name == "" {
		name = cr.Name
	}

	var row results.Row
	opts := []evaluator.Option{
		evaluator.WithName(name),
		evaluator.WithPrecision(prec),
		evaluator.WithMainSimilarity(fn),
		evaluator.WithWriteCSV(false),
		evaluator.WithSink(results.SinkFunc(func(ctx context.Context, got results.Row) error {
			row = got
			return nil
		})),
	}
	if spec.BatchSize > 0 {
		opts = append(opts, evaluator.WithBatchSize(spec.BatchSize))
	}
	if r.Store != nil {
		opts = append(opts, evaluator.WithSink(results.StoreSink(r.Store)))
	}
	ev, err := evaluator.MSESimilarityFromPairs(crPairs(spec.Pairs), opts...)
	if err != nil {
		return results.Row{}, err
	}

	models := r.Models
	if models == nil {
		models = BackendModelFactory
	}
	model, err := models(ctx, spec)
	if err != nil {
		return results.Row{}, fmt.Errorf("build model: %w", err)
	}
	if _, err := ev.Evaluate(ctx, model, "", intOr(spec.Epoch, evaluator.NoEpoch), intOr(spec.Steps, evaluator.NoSteps)); err != nil {
		return results.Row{}, err
	}
	return row, nil
}

func crPairs(specs []v1.PairSpec) []core.Pair {
	pairs := make([]core.Pair, len(specs))
	for i, p := range specs {
		pairs[i] = core.NewPair(p.Sentence1, p.Sentence2, p.Score)
	}
	return pairs
}

func intOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// SetupWithManager registers the reconciler with the manager.
func (r *SimilarityEvaluationReconciler) SetupWithManager(mgr ctrl.Manager) error {
	return ctrl.NewControllerManagedBy(mgr).
		For(&v1.SimilarityEvaluation{}).
		Complete(r)
}

// NewScheme returns a scheme with simeval types registered.
func NewScheme() (*runtime.Scheme, error) {
	scheme := runtime.NewScheme()
	if err := v1.AddToScheme(scheme); err != nil {
		return nil, fmt.Errorf("add simeval scheme: %w", err)
	}
	return scheme, nil
}
