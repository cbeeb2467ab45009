package grading

// Score grades exam against key. A question is correct when the key has a
// matching entry for the expected answer, wrong when the key has an entry
// that doesn't match, and unscored when the key has no entry at all for
// that question within the exam's stage. Correct+Wrong+Unscored always
// equals len(exam.Answers).
func Score(exam Exam, key *AnswerKey) Result {
	result := Result{Stage: exam.Stage, IDExam: exam.IDExam}
	for _, a := range exam.Answers {
		expected, ok := key.Lookup(exam.Stage, a.QstIdx)
		switch {
		case !ok:
			result.Unscored++
		case expected == a.AnsIdx:
			result.Correct++
		default:
			result.Wrong++
		}
	}
	total := len(exam.Answers)
	if total > 0 {
		result.Score = float64(result.Correct) / float64(total)
	}
	return result
}
