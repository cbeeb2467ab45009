package grading

// Answer is a single answered question: the question index and the index
// of the answer the examinee selected.
type Answer struct {
	QstIdx int32
	AnsIdx int32
}

// Exam is one examinee's submission for a given stage.
type Exam struct {
	Stage   int32
	IDExam  int32
	Answers []Answer
}

// Result is the graded outcome of one Exam against an AnswerKey.
type Result struct {
	Stage    int32
	IDExam   int32
	Correct  int32
	Wrong    int32
	Unscored int32
	Score    float64
}

// AnswerKey holds the expected answer for each question, grouped by stage.
// A stage absent from the key, or a question absent from its stage, scores
// as unscored rather than wrong: the key only asserts what it knows.
type AnswerKey struct {
	stages map[int32]map[int32]int32
}

// NewAnswerKey returns an empty key.
func NewAnswerKey() *AnswerKey {
	return &AnswerKey{stages: make(map[int32]map[int32]int32)}
}

// Set records the expected answer for a question within a stage.
func (k *AnswerKey) Set(stage, questionID, answerIdx int32) {
	if k.stages[stage] == nil {
		k.stages[stage] = make(map[int32]int32)
	}
	k.stages[stage][questionID] = answerIdx
}

// Lookup returns the expected answer for a question within a stage, and
// whether the key has an entry for it at all.
func (k *AnswerKey) Lookup(stage, questionID int32) (int32, bool) {
	stageMap, ok := k.stages[stage]
	if !ok {
		return 0, false
	}
	v, ok := stageMap[questionID]
	return v, ok
}

// Questions returns the question ids the key has entries for within stage.
func (k *AnswerKey) Questions(stage int32) []int32 {
	stageMap, ok := k.stages[stage]
	if !ok {
		return nil
	}
	out := make([]int32, 0, len(stageMap))
	for q := range stageMap {
		out = append(out, q)
	}
	return out
}

// Stages returns the set of stages the key has entries for.
func (k *AnswerKey) Stages() []int32 {
	out := make([]int32, 0, len(k.stages))
	for s := range k.stages {
		out = append(out, s)
	}
	return out
}

// Restrict returns a new key containing only the given stages. It is used
// by the coordinator to ship workers just the key slice their batch needs.
func (k *AnswerKey) Restrict(stages []int32) *AnswerKey {
	out := NewAnswerKey()
	for _, s := range stages {
		stageMap, ok := k.stages[s]
		if !ok {
			continue
		}
		for q, a := range stageMap {
			out.Set(s, q, a)
		}
	}
	return out
}
