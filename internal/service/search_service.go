package service

import (
	"fmt"
	"log"

	"github.com/meilisearch/meilisearch-go"
	"kazi.app/attachmentportal/internal/model"
)

const applicationsIndex = "applications"

// SearchService keeps the Meilisearch applications index in sync with the
// registry so staff can search applicants by name, institution or course.
type SearchService interface {
	IndexApplication(app *model.Application) error
	DeleteApplication(id string) error
	SearchApplications(query string, status string) (*meilisearch.SearchResponse, error)
}

type searchService struct {
	client meilisearch.ServiceManager
}

func NewSearchService(client meilisearch.ServiceManager) SearchService {
	s := &searchService{client: client}
	s.initIndex()
	return s
}

func (s *searchService) initIndex() {
	filterableAttrs := []string{"status", "department", "forwarded_to"}
	filterableInterface := make([]any, len(filterableAttrs))
	for i, v := range filterableAttrs {
		filterableInterface[i] = v
	}
	_, err := s.client.Index(applicationsIndex).UpdateFilterableAttributes(&filterableInterface)
	if err != nil {
		log.Printf("Failed to update applications filterable attributes: %v", err)
	}

	sortableAttrs := []string{"created_at"}
	_, err = s.client.Index(applicationsIndex).UpdateSortableAttributes(&sortableAttrs)
	if err != nil {
		log.Printf("Failed to update applications sortable attributes: %v", err)
	}
}

type meiliApplicationDoc struct {
	ID          string `json:"id"`
	StudentName string `json:"student_name"`
	Email       string `json:"email"`
	Institution string `json:"institution"`
	Course      string `json:"course"`
	Status      string `json:"status"`
	Department  string `json:"department"`
	ForwardedTo string `json:"forwarded_to"`
	CreatedAt   int64  `json:"created_at"`
}

func (s *searchService) IndexApplication(app *model.Application) error {
	doc := meiliApplicationDoc{
		ID:         app.ID.String(),
		Status:     string(app.Status),
		Department: string(app.Department),
		CreatedAt:  app.CreatedAt.Unix(),
	}
	if app.ForwardedTo != nil {
		doc.ForwardedTo = string(*app.ForwardedTo)
	}
	if app.Student != nil {
		doc.StudentName = app.Student.FullName
		doc.Email = app.Student.Email
		if app.Student.Profile != nil {
			doc.Institution = app.Student.Profile.Institution
			doc.Course = app.Student.Profile.Course
		}
	}

	_, err := s.client.Index(applicationsIndex).AddDocuments([]meiliApplicationDoc{doc}, strPtr("id"))
	return err
}

func (s *searchService) DeleteApplication(id string) error {
	_, err := s.client.Index(applicationsIndex).DeleteDocument(id)
	return err
}

func (s *searchService) SearchApplications(query string, status string) (*meilisearch.SearchResponse, error) {
	req := &meilisearch.SearchRequest{Limit: 50}
	if status != "" {
		req.Filter = fmt.Sprintf("status = %q", status)
	}

	return s.client.Index(applicationsIndex).Search(query, req)
}

func strPtr(s string) *string {
	return &s
}
