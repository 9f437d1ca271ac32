package session

import "github.com/exam-portal/portal-client/internal/model"

// aggregate computes the attempt outcome by cross-referencing the final
// response set against the questions' correct options. Responses for
// questions outside the exam are ignored.
func aggregate(exam *model.Exam, questions []model.Question, responses []model.Response) *Result {
	byID := make(map[int64]model.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	res := &Result{
		Exam:       exam,
		Questions:  questions,
		Answers:    make(map[int64]int, len(responses)),
		TotalMarks: exam.TotalMarks,
	}

	for _, r := range responses {
		q, ok := byID[r.QuestionID]
		if !ok {
			continue
		}
		res.Score += r.MarksObtained
		res.Answers[r.QuestionID] = r.Answer
		res.AttemptedCount++
		if r.Answer == q.CorrectOption {
			res.CorrectCount++
		} else {
			res.WrongCount++
		}
	}
	return res
}

// aggregateLocal derives the same outcome from the local answer map
// when the final response fetch is unavailable. Marks are recomputed
// per question, so the totals match what the server will report.
func aggregateLocal(exam *model.Exam, questions []model.Question, answers map[int64]int) *Result {
	responses := make([]model.Response, 0, len(answers))
	for _, q := range questions {
		ans, ok := answers[q.ID]
		if !ok {
			continue
		}
		responses = append(responses, model.Response{
			ExamID:        exam.ID,
			QuestionID:    q.ID,
			Answer:        ans,
			MarksObtained: q.MarksFor(ans),
			Submitted:     true,
		})
	}
	return aggregate(exam, questions, responses)
}
