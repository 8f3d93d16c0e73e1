// Package v1 contains the SimilarityEvaluation CRD types.
package v1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
)

// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:resource:scope=Namespaced,shortName=simeval

// SimilarityEvaluation runs an MSE similarity evaluation of an embedding model
// over inline sentence pairs and reports the scores in its status.
type SimilarityEvaluation struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   SimilarityEvaluationSpec   `json:"spec,omitempty"`
	Status SimilarityEvaluationStatus `json:"status,omitempty"`
}

// SimilarityEvaluationSpec defines the evaluation to run.
type SimilarityEvaluationSpec struct {
	Pairs []PairSpec `json:"pairs"`
	// Backend is one of ollama, openai, cohere.
	Backend        string `json:"backend,omitempty"`
	Model          string `json:"model,omitempty"`
	BaseURL        string `json:"baseURL,omitempty"`
	Dimensions     int    `json:"dimensions,omitempty"`
	Precision      string `json:"precision,omitempty"`
	MainSimilarity string `json:"mainSimilarity,omitempty"`
	Name           string `json:"name,omitempty"`
	BatchSize      int    `json:"batchSize,omitempty"`
	// Epoch and Steps are recorded with the result; nil means -1.
	Epoch *int `json:"epoch,omitempty"`
	Steps *int `json:"steps,omitempty"`
}

// PairSpec is one labelled sentence pair.
type PairSpec struct {
	Sentence1 string `json:"sentence1"`
	Sentence2 string `json:"sentence2"`
	// +kubebuilder:validation:Type=number
	Score float64 `json:"score"`
}

// SimilarityEvaluationStatus holds the last result. Scores are decimal strings
// so that NaN survives the round trip.
type SimilarityEvaluationStatus struct {
	Score              string `json:"score,omitempty"`
	MSECosine          string `json:"mseCosine,omitempty"`
	MSEEuclidean       string `json:"mseEuclidean,omitempty"`
	MSEManhattan       string `json:"mseManhattan,omitempty"`
	MSEDot             string `json:"mseDot,omitempty"`
	RunID              string `json:"runID,omitempty"`
	LastRunTime        string `json:"lastRunTime,omitempty"`
	ObservedGeneration int64  `json:"observedGeneration,omitempty"`
	Message            string `json:"message,omitempty"`
}

// +kubebuilder:object:root=true

// SimilarityEvaluationList contains a list of SimilarityEvaluation.
type SimilarityEvaluationList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []SimilarityEvaluation `json:"items"`
}

// DeepCopyObject implements runtime.Object.
func (e *SimilarityEvaluation) DeepCopyObject() runtime.Object {
	if e == nil {
		return nil
	}
	out := &SimilarityEvaluation{}
	e.DeepCopyInto(out)
	return out
}

// DeepCopyInto copies the receiver into out.
func (e *SimilarityEvaluation) DeepCopyInto(out *SimilarityEvaluation) {
	*out = *e
	out.TypeMeta = e.TypeMeta
	e.ObjectMeta.DeepCopyInto(&out.ObjectMeta)
	e.Spec.DeepCopyInto(&out.Spec)
	out.Status = e.Status
}

// DeepCopyInto copies SimilarityEvaluationSpec.
func (s *SimilarityEvaluationSpec) DeepCopyInto(out *SimilarityEvaluationSpec) {
	*out = *s
	if s.Pairs != nil {
		out.Pairs = make([]PairSpec, len(s.Pairs))
		copy(out.Pairs, s.Pairs)
	}
	if s.Epoch != nil {
		v := *s.Epoch
		out.Epoch = &v
	}
	if s.Steps != nil {
		v := *s.Steps
		out.Steps = &v
	}
}

// DeepCopyObject implements runtime.Object for SimilarityEvaluationList.
func (l *SimilarityEvaluationList) DeepCopyObject() runtime.Object {
	if l == nil {
		return nil
	}
	out := &SimilarityEvaluationList{}
	l.DeepCopyInto(out)
	return out
}

// DeepCopyInto copies the list into out.
func (l *SimilarityEvaluationList) DeepCopyInto(out *SimilarityEvaluationList) {
	*out = *l
	out.TypeMeta = l.TypeMeta
	l.ListMeta.DeepCopyInto(&out.ListMeta)
	if l.Items != nil {
		out.Items = make([]SimilarityEvaluation, len(l.Items))
		for i := range l.Items {
			l.Items[i].DeepCopyInto(&out.Items[i])
		}
	}
}
