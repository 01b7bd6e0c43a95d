package service

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/grouplab-go-api/internal/eligibility"
	"github.com/noah-isme/grouplab-go-api/internal/models"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

type memoryProjectRepo struct {
	projects map[uint]models.Project
	nextID   uint
}

func newMemoryProjectRepo() *memoryProjectRepo {
	return &memoryProjectRepo{projects: make(map[uint]models.Project), nextID: 1}
}

func (m *memoryProjectRepo) List(ctx context.Context) ([]models.Project, error) {
	results := make([]models.Project, 0, len(m.projects))
	for _, project := range m.projects {
		results = append(results, project)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	return results, nil
}

func (m *memoryProjectRepo) GetByID(ctx context.Context, id uint) (models.Project, error) {
	project, ok := m.projects[id]
	if !ok {
		return models.Project{}, gorm.ErrRecordNotFound
	}
	return project, nil
}

func (m *memoryProjectRepo) Create(ctx context.Context, project *models.Project) error {
	project.ID = m.nextID
	project.CreatedAt = time.Now()
	project.UpdatedAt = time.Now()
	m.projects[m.nextID] = *project
	m.nextID++
	return nil
}

func (m *memoryProjectRepo) Update(ctx context.Context, project *models.Project) error {
	if _, ok := m.projects[project.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.projects[project.ID] = *project
	return nil
}

type memoryDeliverableRepo struct {
	deliverables map[uint]models.Deliverable
	nextID       uint
}

func newMemoryDeliverableRepo() *memoryDeliverableRepo {
	return &memoryDeliverableRepo{deliverables: make(map[uint]models.Deliverable), nextID: 1}
}

func (m *memoryDeliverableRepo) ListByProject(ctx context.Context, projectID uint) ([]models.Deliverable, error) {
	results := make([]models.Deliverable, 0)
	for _, deliverable := range m.deliverables {
		if deliverable.ProjectID == projectID {
			results = append(results, deliverable)
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Deadline.Before(results[j].Deadline) })
	return results, nil
}

func (m *memoryDeliverableRepo) GetByID(ctx context.Context, id uint) (models.Deliverable, error) {
	deliverable, ok := m.deliverables[id]
	if !ok {
		return models.Deliverable{}, gorm.ErrRecordNotFound
	}
	return deliverable, nil
}

func (m *memoryDeliverableRepo) Create(ctx context.Context, deliverable *models.Deliverable) error {
	deliverable.ID = m.nextID
	deliverable.CreatedAt = time.Now()
	deliverable.UpdatedAt = time.Now()
	m.deliverables[m.nextID] = *deliverable
	m.nextID++
	return nil
}

func (m *memoryDeliverableRepo) Update(ctx context.Context, deliverable *models.Deliverable) error {
	if _, ok := m.deliverables[deliverable.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.deliverables[deliverable.ID] = *deliverable
	return nil
}

func (m *memoryDeliverableRepo) Delete(ctx context.Context, id uint) error {
	if _, ok := m.deliverables[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.deliverables, id)
	return nil
}

func (m *memoryDeliverableRepo) ReplaceRules(ctx context.Context, deliverableID uint, rules []models.ValidationRule) error {
	deliverable, ok := m.deliverables[deliverableID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	deliverable.Rules = rules
	m.deliverables[deliverableID] = deliverable
	return nil
}

type memoryGroupRepo struct {
	groups       map[uint]models.Group
	nextID       uint
	nextMemberID uint
}

func newMemoryGroupRepo() *memoryGroupRepo {
	return &memoryGroupRepo{groups: make(map[uint]models.Group), nextID: 1, nextMemberID: 1}
}

func (m *memoryGroupRepo) ListByProject(ctx context.Context, projectID uint) ([]models.Group, error) {
	results := make([]models.Group, 0)
	for _, group := range m.groups {
		if group.ProjectID == projectID {
			results = append(results, group)
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	return results, nil
}

func (m *memoryGroupRepo) GetByID(ctx context.Context, id uint) (models.Group, error) {
	group, ok := m.groups[id]
	if !ok {
		return models.Group{}, gorm.ErrRecordNotFound
	}
	return group, nil
}

func (m *memoryGroupRepo) GetForStudent(ctx context.Context, projectID, studentID uint) (models.Group, error) {
	for _, group := range m.groups {
		if group.ProjectID == projectID && group.HasMember(studentID) {
			return group, nil
		}
	}
	return models.Group{}, gorm.ErrRecordNotFound
}

func (m *memoryGroupRepo) Create(ctx context.Context, group *models.Group) error {
	group.ID = m.nextID
	for i := range group.Members {
		group.Members[i].ID = m.nextMemberID
		group.Members[i].GroupID = group.ID
		m.nextMemberID++
	}
	group.CreatedAt = time.Now()
	group.UpdatedAt = time.Now()
	m.groups[m.nextID] = *group
	m.nextID++
	return nil
}

func (m *memoryGroupRepo) Update(ctx context.Context, group *models.Group) error {
	if _, ok := m.groups[group.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.groups[group.ID] = *group
	return nil
}

func (m *memoryGroupRepo) Delete(ctx context.Context, id uint) error {
	if _, ok := m.groups[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.groups, id)
	return nil
}

func (m *memoryGroupRepo) AddMember(ctx context.Context, member *models.GroupMember) error {
	group, ok := m.groups[member.GroupID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	member.ID = m.nextMemberID
	m.nextMemberID++
	group.Members = append(group.Members, *member)
	m.groups[member.GroupID] = group
	return nil
}

func (m *memoryGroupRepo) RemoveMember(ctx context.Context, groupID, studentID uint) error {
	group, ok := m.groups[groupID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	members := group.Members[:0]
	removed := false
	for _, member := range group.Members {
		if member.StudentID == studentID {
			removed = true
			continue
		}
		members = append(members, member)
	}
	if !removed {
		return gorm.ErrRecordNotFound
	}
	group.Members = members
	m.groups[groupID] = group
	return nil
}

type memorySubmissionRepo struct {
	submissions map[uint]models.Submission
	nextID      uint
}

func newMemorySubmissionRepo() *memorySubmissionRepo {
	return &memorySubmissionRepo{submissions: make(map[uint]models.Submission), nextID: 1}
}

func (m *memorySubmissionRepo) ListByDeliverable(ctx context.Context, deliverableID uint) ([]models.Submission, error) {
	results := make([]models.Submission, 0)
	for _, submission := range m.submissions {
		if submission.DeliverableID == deliverableID {
			results = append(results, submission)
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].SubmittedAt.After(results[j].SubmittedAt) })
	return results, nil
}

func (m *memorySubmissionRepo) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	submission, ok := m.submissions[id]
	if !ok {
		return models.Submission{}, gorm.ErrRecordNotFound
	}
	return submission, nil
}

func (m *memorySubmissionRepo) GetByDeliverableAndGroup(ctx context.Context, deliverableID, groupID uint) (models.Submission, error) {
	for _, submission := range m.submissions {
		if submission.DeliverableID == deliverableID && submission.GroupID == groupID {
			return submission, nil
		}
	}
	return models.Submission{}, gorm.ErrRecordNotFound
}

func (m *memorySubmissionRepo) Replace(ctx context.Context, submission *models.Submission) error {
	for id, existing := range m.submissions {
		if existing.DeliverableID == submission.DeliverableID && existing.GroupID == submission.GroupID {
			delete(m.submissions, id)
		}
	}
	submission.ID = m.nextID
	submission.CreatedAt = time.Now()
	submission.UpdatedAt = time.Now()
	m.submissions[m.nextID] = *submission
	m.nextID++
	return nil
}

func (m *memorySubmissionRepo) Delete(ctx context.Context, id uint) error {
	if _, ok := m.submissions[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.submissions, id)
	return nil
}

type memorySimilarityRepo struct {
	reports []models.SimilarityReport
	nextID  uint
}

func newMemorySimilarityRepo() *memorySimilarityRepo {
	return &memorySimilarityRepo{nextID: 1}
}

func (m *memorySimilarityRepo) GetLatestByDeliverable(ctx context.Context, deliverableID uint) (models.SimilarityReport, error) {
	for i := len(m.reports) - 1; i >= 0; i-- {
		if m.reports[i].DeliverableID == deliverableID {
			return m.reports[i], nil
		}
	}
	return models.SimilarityReport{}, gorm.ErrRecordNotFound
}

func (m *memorySimilarityRepo) Create(ctx context.Context, report *models.SimilarityReport) error {
	report.ID = m.nextID
	m.nextID++
	m.reports = append(m.reports, *report)
	return nil
}

type groupLookup struct {
	groups *memoryGroupRepo
}

func (l groupLookup) GroupForStudent(ctx context.Context, projectID, studentID uint) (*eligibility.Membership, error) {
	group, err := l.groups.GetForStudent(ctx, projectID, studentID)
	if err != nil {
		return nil, nil
	}
	return &eligibility.Membership{GroupID: group.ID, MemberCount: group.Size()}, nil
}

type recordingUploader struct {
	uploads int
}

func (s *recordingUploader) Upload(_ context.Context, name string, _ io.Reader) (string, error) {
	s.uploads++
	return "https://cdn.example.com/" + name, nil
}

type recordingRealtime struct {
	events      []SubmissionEvent
	groupEvents []GroupEvent
}

func (s *recordingRealtime) Broadcast(_ context.Context, event SubmissionEvent) {
	s.events = append(s.events, event)
}

func (s *recordingRealtime) PublishGroupEvent(_ context.Context, event GroupEvent) {
	s.groupEvents = append(s.groupEvents, event)
}

func (s *recordingRealtime) Subscribe(uint) (<-chan SubmissionEvent, func()) {
	ch := make(chan SubmissionEvent)
	return ch, func() { close(ch) }
}

func (s *recordingRealtime) Start(context.Context) {}

// newZipFileHeader builds an in-memory zip archive and wraps it in a
// multipart file header, the same shape Fiber hands the service.
func newZipFileHeader(t *testing.T, name string, files map[string]string) *multipart.FileHeader {
	t.Helper()

	archiveBuf := &bytes.Buffer{}
	writer := zip.NewWriter(archiveBuf)
	for path, content := range files {
		entry, err := writer.Create(path)
		require.NoError(t, err)
		_, err = entry.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	body := &bytes.Buffer{}
	form := multipart.NewWriter(body)
	part, err := form.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(archiveBuf.Bytes())
	require.NoError(t, err)
	require.NoError(t, form.Close())

	req := httptest.NewRequest("POST", "/", body)
	req.Header.Set("Content-Type", form.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(int64(body.Len())+1024))
	headers := req.MultipartForm.File["file"]
	require.Len(t, headers, 1)
	return headers[0]
}
