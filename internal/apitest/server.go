// Package apitest is an in-process fake of the exam-portal REST API,
// used by the client test suites in place of the real server. It
// mirrors the server's observable contract: JWT-bearing auth, response
// upsert semantics, finalize-time rescoring, and 409 on resubmission.
// Failure switches let tests exercise the client's degraded paths.
package apitest

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/exam-portal/portal-client/internal/model"
)

type resultKey struct {
	examID int64
	userID int64
}

type userRecord struct {
	id       int64
	email    string
	name     string
	password string
	role     string
}

// Server is the fake portal API. Construct with New, seed with the Add
// helpers, and point an api.Client at URL().
type Server struct {
	mu             sync.Mutex
	secret         []byte
	users          map[string]*userRecord
	nextUserID     int64
	exams          map[int64]model.Exam
	questions      map[int64]model.Question
	responses      map[int64]*model.Response
	nextResponseID int64
	results        map[resultKey]*model.Result
	nextResultID   int64

	failSaves         bool
	failFinalize      bool
	failListResponses bool
	finalizeCalls     int

	httpSrv *httptest.Server
}

// New starts the fake API on an ephemeral port.
func New() *Server {
	s := &Server{
		secret:    []byte("apitest-secret"),
		users:     make(map[string]*userRecord),
		exams:     make(map[int64]model.Exam),
		questions: make(map[int64]model.Question),
		responses: make(map[int64]*model.Response),
		results:   make(map[resultKey]*model.Result),
	}

	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(cors.Default())

	engine.POST("/auth/login", s.handleLogin)
	engine.POST("/auth/register", s.handleRegister)

	authed := engine.Group("/", s.requireAuth)
	authed.GET("/exams", s.handleListExams)
	authed.GET("/exams/:id", s.handleGetExam)
	authed.GET("/questions", s.handleListQuestions)
	authed.GET("/responses", s.handleListResponses)
	authed.POST("/responses", s.handleSaveResponse)
	authed.PUT("/responses", s.handleUpdateResponse)
	authed.POST("/submit-exam/:examId", s.handleSubmitExam)
	authed.GET("/results", s.handleResults)

	s.httpSrv = httptest.NewServer(engine)
	return s
}

// URL is the API base URL.
func (s *Server) URL() string { return s.httpSrv.URL }

// Close shuts the fake API down.
func (s *Server) Close() { s.httpSrv.Close() }

// ─── Seeding and switches ───────────────────────────────────────────

// AddUser registers an account and returns its ID.
func (s *Server) AddUser(email, password, role string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextUserID++
	s.users[email] = &userRecord{
		id:       s.nextUserID,
		email:    email,
		password: password,
		role:     role,
	}
	return s.nextUserID
}

// AddExam stores an exam as-is.
func (s *Server) AddExam(exam model.Exam) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exams[exam.ID] = exam
}

// AddQuestion stores a question as-is.
func (s *Server) AddQuestion(q model.Question) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.questions[q.ID] = q
}

// Responses returns a copy of every stored response, for assertions.
func (s *Server) Responses() []model.Response {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Response, 0, len(s.responses))
	for _, r := range s.responses {
		out = append(out, *r)
	}
	return out
}

// FinalizeCalls returns how many times the finalize endpoint ran.
func (s *Server) FinalizeCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finalizeCalls
}

// SetFailSaves makes response upserts return 500.
func (s *Server) SetFailSaves(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failSaves = fail
}

// SetFailFinalize makes the finalize endpoint return 500.
func (s *Server) SetFailFinalize(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failFinalize = fail
}

// SetFailListResponses makes the response listing return 500.
func (s *Server) SetFailListResponses(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failListResponses = fail
}

// ─── Auth ───────────────────────────────────────────────────────────

type tokenClaims struct {
	jwt.RegisteredClaims
	UserID int64  `json:"id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

func (s *Server) issueToken(u *userRecord) (string, error) {
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(u.id, 10),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		},
		UserID: u.id,
		Email:  u.email,
		Role:   u.role,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *Server) requireAuth(c *gin.Context) {
	header := c.GetHeader("Authorization")
	tokenStr := ""
	if len(header) > 7 && header[:7] == "Bearer " {
		tokenStr = header[7:]
	}
	if tokenStr == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "token required"})
		return
	}

	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "invalid token"})
		return
	}

	c.Set("userID", claims.UserID)
	c.Set("role", claims.Role)
	c.Next()
}

func (s *Server) handleLogin(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	s.mu.Lock()
	u, ok := s.users[req.Email]
	s.mu.Unlock()
	if !ok || u.password != req.Password {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
		return
	}

	token, err := s.issueToken(u)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "token issue failed"})
		return
	}
	// The real portal returns the token with a Bearer prefix; the
	// client must cope with it.
	c.JSON(http.StatusOK, model.LoginResponse{Token: "Bearer " + token, Role: u.role})
}

func (s *Server) handleRegister(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[req.Email]; exists {
		c.JSON(http.StatusConflict, gin.H{"message": "email already registered"})
		return
	}
	s.nextUserID++
	u := &userRecord{
		id:       s.nextUserID,
		email:    req.Email,
		name:     req.Name,
		password: req.Password,
		role:     model.RoleStudent,
	}
	s.users[req.Email] = u
	c.JSON(http.StatusCreated, model.User{ID: u.id, Email: u.email, Name: u.name, Role: u.role})
}

// ─── Exams and questions ────────────────────────────────────────────

func (s *Server) handleListExams(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Exam, 0, len(s.exams))
	for _, e := range s.exams {
		out = append(out, e)
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleGetExam(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "bad exam id"})
		return
	}

	s.mu.Lock()
	exam, ok := s.exams[id]
	s.mu.Unlock()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "exam not found"})
		return
	}
	c.JSON(http.StatusOK, exam)
}

func (s *Server) handleListQuestions(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Question, 0, len(s.questions))
	for _, q := range s.questions {
		out = append(out, q)
	}
	c.JSON(http.StatusOK, out)
}

// ─── Responses ──────────────────────────────────────────────────────

func (s *Server) handleListResponses(c *gin.Context) {
	examID, _ := strconv.ParseInt(c.Query("examId"), 10, 64)
	userID, _ := strconv.ParseInt(c.Query("userId"), 10, 64)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failListResponses {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "list failed"})
		return
	}

	out := make([]model.Response, 0)
	for _, r := range s.responses {
		if r.ExamID == examID && r.UserID == userID {
			out = append(out, *r)
		}
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleSaveResponse(c *gin.Context) {
	var r model.Response
	if err := c.ShouldBindJSON(&r); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	r.UserID = c.GetInt64("userID")

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSaves {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "save failed"})
		return
	}
	if _, ok := s.exams[r.ExamID]; !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "exam not found"})
		return
	}
	if _, ok := s.questions[r.QuestionID]; !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "question not found"})
		return
	}

	s.nextResponseID++
	r.ID = s.nextResponseID
	s.responses[r.ID] = &r
	c.JSON(http.StatusOK, r)
}

func (s *Server) handleUpdateResponse(c *gin.Context) {
	var r model.Response
	if err := c.ShouldBindJSON(&r); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	r.UserID = c.GetInt64("userID")

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSaves {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "save failed"})
		return
	}
	existing, ok := s.responses[r.ID]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "response not found"})
		return
	}
	existing.Answer = r.Answer
	existing.MarksObtained = r.MarksObtained
	existing.Submitted = r.Submitted
	c.JSON(http.StatusOK, *existing)
}

// ─── Finalize and results ───────────────────────────────────────────

func (s *Server) handleSubmitExam(c *gin.Context) {
	examID, err := strconv.ParseInt(c.Param("examId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "bad exam id"})
		return
	}
	userID := c.GetInt64("userID")

	s.mu.Lock()
	defer s.mu.Unlock()
	s.finalizeCalls++

	if s.failFinalize {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "finalize failed"})
		return
	}

	exam, ok := s.exams[examID]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "exam not found"})
		return
	}

	key := resultKey{examID: examID, userID: userID}
	if _, exists := s.results[key]; exists {
		c.JSON(http.StatusConflict, gin.H{"message": "Exam already submitted. You cannot submit again."})
		return
	}

	// Authoritative rescore: the server never trusts client marks.
	var obtained float64
	found := false
	for _, r := range s.responses {
		if r.ExamID != examID || r.UserID != userID {
			continue
		}
		found = true
		if q, ok := s.questions[r.QuestionID]; ok {
			r.MarksObtained = q.MarksFor(r.Answer)
			obtained += r.MarksObtained
		}
		r.Submitted = true
	}
	if !found {
		c.JSON(http.StatusBadRequest, gin.H{"message": "No responses found for this exam."})
		return
	}

	s.nextResultID++
	result := &model.Result{
		ID:            s.nextResultID,
		ExamID:        examID,
		UserID:        userID,
		MarksObtained: obtained,
		TotalMarks:    exam.TotalMarks,
	}
	s.results[key] = result
	c.JSON(http.StatusOK, *result)
}

func (s *Server) handleResults(c *gin.Context) {
	examIDStr := c.Query("examId")
	userIDStr := c.Query("userId")

	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case examIDStr != "" && userIDStr != "":
		examID, _ := strconv.ParseInt(examIDStr, 10, 64)
		userID, _ := strconv.ParseInt(userIDStr, 10, 64)
		if r, ok := s.results[resultKey{examID: examID, userID: userID}]; ok {
			c.JSON(http.StatusOK, *r)
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"message": "result not found"})

	case userIDStr != "":
		userID, _ := strconv.ParseInt(userIDStr, 10, 64)
		out := make([]model.Result, 0)
		for _, r := range s.results {
			if r.UserID == userID {
				out = append(out, *r)
			}
		}
		c.JSON(http.StatusOK, out)

	default:
		role := c.GetString("role")
		if role != model.RoleAdmin && role != model.RoleExaminer {
			c.JSON(http.StatusForbidden, gin.H{"message": "admin access only"})
			return
		}
		out := make([]model.Result, 0, len(s.results))
		for _, r := range s.results {
			out = append(out, *r)
		}
		c.JSON(http.StatusOK, out)
	}
}
