package http

import "github.com/taskflow-app/taskflow-sync/internal/projects/domain"

type createProjectRequest struct {
	Name        string             `json:"name" binding:"required"`
	Description string             `json:"description"`
	AccessKey   string             `json:"key"`
	KeyPeople   []domain.KeyPerson `json:"keyPeople"`
	Resources   []domain.Resource  `json:"resources"`
	StartDate   string             `json:"startDate"`
	Deadline    string             `json:"deadline"`
}

type updateProjectRequest struct {
	Name        *string             `json:"name"`
	Description *string             `json:"description"`
	AccessKey   *string             `json:"key"`
	KeyPeople   *[]domain.KeyPerson `json:"keyPeople"`
	Resources   *[]domain.Resource  `json:"resources"`
	StartDate   *string             `json:"startDate"`
	Deadline    *string             `json:"deadline"`
}

func (r updateProjectRequest) updates() domain.Updates {
	return domain.Updates{
		Name:        r.Name,
		Description: r.Description,
		AccessKey:   r.AccessKey,
		KeyPeople:   r.KeyPeople,
		Resources:   r.Resources,
		StartDate:   r.StartDate,
		Deadline:    r.Deadline,
	}
}

type openProjectRequest struct {
	Key string `json:"key"`
}
