package domain

import "errors"

// ErrNotFound is returned when a project does not exist in the remote store.
var ErrNotFound = errors.New("project not found")

// KeyPerson is a named contact attached to a project.
type KeyPerson struct {
	Name  string `firestore:"name" json:"name"`
	Role  string `firestore:"role" json:"role"`
	Email string `firestore:"email" json:"email"`
}

// Resource is a titled link attached to a project.
type Resource struct {
	Title string `firestore:"title" json:"title"`
	Link  string `firestore:"link" json:"link"`
}

// Project is a single tracked project. The document id lives outside the
// stored fields; date fields are ISO-8601 strings as written by the clients.
type Project struct {
	ID          string      `firestore:"-" json:"id"`
	Name        string      `firestore:"name" json:"name"`
	Description string      `firestore:"description,omitempty" json:"description,omitempty"`
	CreatedAt   string      `firestore:"createdAt" json:"createdAt"`
	OwnerID     string      `firestore:"userId" json:"userId"`
	AccessKey   string      `firestore:"key" json:"key"`
	KeyPeople   []KeyPerson `firestore:"keyPeople,omitempty" json:"keyPeople,omitempty"`
	Resources   []Resource  `firestore:"resources,omitempty" json:"resources,omitempty"`
	StartDate   string      `firestore:"startDate,omitempty" json:"startDate,omitempty"`
	Deadline    string      `firestore:"deadline,omitempty" json:"deadline,omitempty"`
}

// Draft holds the fields of a project about to be created. ID and CreatedAt
// are assigned by the store and the registry respectively.
type Draft struct {
	Name        string
	Description string
	OwnerID     string
	AccessKey   string
	KeyPeople   []KeyPerson
	Resources   []Resource
	StartDate   string
	Deadline    string
}

// Fields returns the document fields for the draft. Unset optional fields are
// omitted entirely: the store mishandles explicit empty markers.
func (d Draft) Fields(createdAt string) map[string]interface{} {
	f := map[string]interface{}{
		"name":      d.Name,
		"userId":    d.OwnerID,
		"key":       d.AccessKey,
		"createdAt": createdAt,
	}
	if d.Description != "" {
		f["description"] = d.Description
	}
	if len(d.KeyPeople) > 0 {
		f["keyPeople"] = d.KeyPeople
	}
	if len(d.Resources) > 0 {
		f["resources"] = d.Resources
	}
	if d.StartDate != "" {
		f["startDate"] = d.StartDate
	}
	if d.Deadline != "" {
		f["deadline"] = d.Deadline
	}
	return f
}

// Updates is a partial project mutation. Nil fields are left untouched.
type Updates struct {
	Name        *string
	Description *string
	AccessKey   *string
	KeyPeople   *[]KeyPerson
	Resources   *[]Resource
	StartDate   *string
	Deadline    *string
}

// Fields returns only the fields that are actually set.
func (u Updates) Fields() map[string]interface{} {
	f := make(map[string]interface{})
	if u.Name != nil {
		f["name"] = *u.Name
	}
	if u.Description != nil {
		f["description"] = *u.Description
	}
	if u.AccessKey != nil {
		f["key"] = *u.AccessKey
	}
	if u.KeyPeople != nil {
		f["keyPeople"] = *u.KeyPeople
	}
	if u.Resources != nil {
		f["resources"] = *u.Resources
	}
	if u.StartDate != nil {
		f["startDate"] = *u.StartDate
	}
	if u.Deadline != nil {
		f["deadline"] = *u.Deadline
	}
	return f
}
