package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/noah-isme/sma-score-engine/internal/models"
	appErrors "github.com/noah-isme/sma-score-engine/pkg/errors"
)

// memStore is an in-memory stand-in for every repository the services use.
type memStore struct {
	mu sync.Mutex

	classrooms []models.Classroom
	rosters    map[string][]string
	methods    []models.EvaluationMethod
	scores     map[string]models.Score
	summaries  []models.ScoreSummary

	replaceCalls int
	replaceErr   map[string]error
	nextID       int
}

func newMemStore() *memStore {
	return &memStore{
		rosters:    make(map[string][]string),
		scores:     make(map[string]models.Score),
		replaceErr: make(map[string]error),
	}
}

func (m *memStore) addClassroom(id string, year, grade, classNum int, students ...string) {
	m.classrooms = append(m.classrooms, models.Classroom{ID: id, Year: year, Grade: grade, ClassNum: classNum})
	m.rosters[id] = students
}

func (m *memStore) addMethod(method models.EvaluationMethod) {
	m.methods = append(m.methods, method)
}

func (m *memStore) putScore(studentID, methodID string, raw float64) {
	m.scores[studentID+"|"+methodID] = models.Score{StudentID: studentID, EvaluationMethodID: methodID, RawScore: raw}
}

func (m *memStore) summariesFor(subjectID string) []models.ScoreSummary {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ScoreSummary
	for _, s := range m.summaries {
		if s.SubjectID == subjectID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StudentID < out[j].StudentID })
	return out
}

// rosterReader / classroomLocator

func (m *memStore) FindByNumber(ctx context.Context, year, grade, classNum int) (*models.Classroom, error) {
	for _, c := range m.classrooms {
		if c.Year == year && c.Grade == grade && c.ClassNum == classNum {
			c := c
			return &c, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memStore) ListStudentIDs(ctx context.Context, classroomID string) ([]string, error) {
	return append([]string(nil), m.rosters[classroomID]...), nil
}

func (m *memStore) FindByStudent(ctx context.Context, studentID string, year int) (*models.Classroom, error) {
	for _, c := range m.classrooms {
		if c.Year != year {
			continue
		}
		for _, id := range m.rosters[c.ID] {
			if id == studentID {
				c := c
				return &c, nil
			}
		}
	}
	return nil, sql.ErrNoRows
}

// evaluation methods

func (m *memStore) Create(ctx context.Context, method *models.EvaluationMethod) error {
	m.nextID++
	method.ID = fmt.Sprintf("method-%d", m.nextID)
	m.methods = append(m.methods, *method)
	return nil
}

func (m *memStore) CreateGuarded(ctx context.Context, method *models.EvaluationMethod, guard func(existing float64) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, _ := m.SumWeights(ctx, models.EvaluationScope{SubjectID: method.SubjectID, Year: method.Year, Semester: method.Semester, Grade: method.Grade})
	if err := guard(existing); err != nil {
		return err
	}
	return m.Create(ctx, method)
}

func (m *memStore) FindByID(ctx context.Context, id string) (*models.EvaluationMethod, error) {
	for _, method := range m.methods {
		if method.ID == id {
			method := method
			return &method, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memStore) FindByIDs(ctx context.Context, ids []string) (map[string]models.EvaluationMethod, error) {
	out := make(map[string]models.EvaluationMethod)
	for _, id := range ids {
		if method, err := m.FindByID(ctx, id); err == nil {
			out[id] = *method
		}
	}
	return out, nil
}

func (m *memStore) ListByScope(ctx context.Context, scope models.EvaluationScope) ([]models.EvaluationMethod, error) {
	var out []models.EvaluationMethod
	for _, method := range m.methods {
		if method.SubjectID == scope.SubjectID && method.Year == scope.Year && method.Semester == scope.Semester && method.Grade == scope.Grade {
			out = append(out, method)
		}
	}
	return out, nil
}

func (m *memStore) ListSubjectIDs(ctx context.Context, year, semester, grade int) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	for _, method := range m.methods {
		if method.Year != year || method.Semester != semester || method.Grade != grade {
			continue
		}
		if _, ok := seen[method.SubjectID]; ok {
			continue
		}
		seen[method.SubjectID] = struct{}{}
		out = append(out, method.SubjectID)
	}
	sort.Strings(out)
	return out, nil
}

func (m *memStore) SumWeights(ctx context.Context, scope models.EvaluationScope) (float64, error) {
	methods, _ := m.ListByScope(ctx, scope)
	var total float64
	for _, method := range methods {
		total += method.Weight
	}
	return total, nil
}

// scores

func (m *memStore) Upsert(ctx context.Context, score *models.Score) error {
	m.scores[score.StudentID+"|"+score.EvaluationMethodID] = *score
	return nil
}

func (m *memStore) BulkUpsert(ctx context.Context, scores []models.Score) error {
	for i := range scores {
		_ = m.Upsert(ctx, &scores[i])
	}
	return nil
}

func (m *memStore) FindByStudentsAndMethods(ctx context.Context, studentIDs, methodIDs []string) (map[string][]models.Score, error) {
	wanted := make(map[string]struct{}, len(methodIDs))
	for _, id := range methodIDs {
		wanted[id] = struct{}{}
	}
	out := make(map[string][]models.Score)
	for _, studentID := range studentIDs {
		for key, score := range m.scores {
			if !strings.HasPrefix(key, studentID+"|") {
				continue
			}
			if _, ok := wanted[score.EvaluationMethodID]; ok {
				out[studentID] = append(out[studentID], score)
			}
		}
	}
	return out, nil
}

// summaries

func (m *memStore) ReplaceSummaries(ctx context.Context, key models.SummaryKey, studentIDs []string, summaries []models.ScoreSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replaceCalls++
	if err := m.replaceErr[key.SubjectID]; err != nil {
		return err
	}
	cohort := make(map[string]struct{}, len(studentIDs))
	for _, id := range studentIDs {
		cohort[id] = struct{}{}
	}
	feedback := make(map[string]*string)
	kept := m.summaries[:0]
	for _, s := range m.summaries {
		_, inCohort := cohort[s.StudentID]
		if inCohort && s.SubjectID == key.SubjectID && s.Year == key.Year && s.Semester == key.Semester {
			feedback[s.StudentID] = s.Feedback
			continue
		}
		kept = append(kept, s)
	}
	m.summaries = kept
	for _, s := range summaries {
		m.nextID++
		s.ID = fmt.Sprintf("summary-%d", m.nextID)
		if s.Feedback == nil {
			s.Feedback = feedback[s.StudentID]
		}
		m.summaries = append(m.summaries, s)
	}
	return nil
}

func (m *memStore) FindOne(ctx context.Context, lookup models.SummaryLookup) (*models.ScoreSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var best *models.ScoreSummary
	for i := range m.summaries {
		s := m.summaries[i]
		if s.StudentID != lookup.StudentID || s.SubjectID != lookup.SubjectID {
			continue
		}
		if lookup.Year != 0 && lookup.Semester != 0 {
			if s.Year == lookup.Year && s.Semester == lookup.Semester {
				return &s, nil
			}
			continue
		}
		if best == nil || s.Year > best.Year || (s.Year == best.Year && s.Semester > best.Semester) {
			best = &s
		}
	}
	if best == nil {
		return nil, sql.ErrNoRows
	}
	return best, nil
}

func (m *memStore) summaryByID(ctx context.Context, id string) (*models.ScoreSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.summaries {
		if s.ID == id {
			s := s
			return &s, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memStore) UpdateFeedback(ctx context.Context, id string, feedback *string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.summaries {
		if m.summaries[i].ID == id {
			m.summaries[i].Feedback = feedback
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) ListClassSheet(ctx context.Context, filter models.SummaryFilter) ([]models.ClassSheetRow, error) {
	var rows []models.ClassSheetRow
	for _, s := range m.summariesFor(filter.SubjectID) {
		if s.Year != filter.Year || s.Semester != filter.Semester || s.Grade != filter.Grade || s.ClassNum != filter.ClassNum {
			continue
		}
		rows = append(rows, models.ClassSheetRow{ScoreSummary: s, StudentName: "Student " + s.StudentID})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Rank < rows[j].Rank })
	for i := range rows {
		rows[i].StudentNumber = i + 1
	}
	return rows, nil
}

// summaryStoreView exposes the summary side of memStore; FindByID collides
// between the method and summary interfaces.
type summaryStoreView struct{ *memStore }

func (v summaryStoreView) FindByID(ctx context.Context, id string) (*models.ScoreSummary, error) {
	return v.memStore.summaryByID(ctx, id)
}

// fakeCache is an in-memory CacheRepository.
type fakeCache struct {
	mu          sync.Mutex
	entries     map[string]models.ScoreSummary
	generations map[string]int64
	deleted     []string
	getErr      error
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]models.ScoreSummary), generations: make(map[string]int64)}
}

func (c *fakeCache) Get(ctx context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return c.getErr
	}
	if counter, ok := dest.(*int64); ok {
		v, found := c.generations[key]
		if !found {
			return appErrors.ErrCacheMiss
		}
		*counter = v
		return nil
	}
	v, ok := c.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	*(dest.(*models.ScoreSummary)) = v
	return nil
}

func (c *fakeCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = *(value.(*models.ScoreSummary))
	return nil
}

func (c *fakeCache) Incr(ctx context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generations[key]++
	return c.generations[key], nil
}

func (c *fakeCache) DeleteByPattern(ctx context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleted = append(c.deleted, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
	return nil
}

func ptrFloat(v float64) *float64 { return &v }

func ptrString(v string) *string { return &v }
