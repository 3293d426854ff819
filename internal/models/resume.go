package models

import "time"

// PersonalInfo контактные данные соискателя.
type PersonalInfo struct {
	FullName string `json:"fullName" validate:"required"`
	Email    string `json:"email" validate:"omitempty,email"`
	Phone    string `json:"phone,omitempty"`
	Location string `json:"location,omitempty"`
	LinkedIn string `json:"linkedin,omitempty"`
	GitHub   string `json:"github,omitempty"`
	Website  string `json:"website,omitempty"`
}

// Education запись об образовании.
type Education struct {
	Institution string `json:"institution"`
	Degree      string `json:"degree"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Description string `json:"description,omitempty"`
}

// Experience запись об опыте работы.
type Experience struct {
	Company     string `json:"company"`
	Position    string `json:"position"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Description string `json:"description"`
}

// Language владение языком.
type Language struct {
	Language    string `json:"language"`
	Proficiency string `json:"proficiency" validate:"omitempty,oneof=Basic Intermediate Advanced Fluent Native"`
}

// ResumeFormData данные формы, из которых генерируется текст резюме.
type ResumeFormData struct {
	PersonalInfo   PersonalInfo `json:"personalInfo"`
	Education      []Education  `json:"education"`
	Experience     []Experience `json:"experience"`
	Skills         []string     `json:"skills"`
	Languages      []Language   `json:"languages,omitempty" validate:"dive"`
	TargetPosition string       `json:"targetPosition" validate:"required"`
	AdditionalInfo string       `json:"additionalInfo,omitempty"`
}

// GeneratedResume результат генерации.
type GeneratedResume struct {
	Text        string `json:"text"`
	UsingOpenAI bool   `json:"usingOpenAI"`
	Model       string `json:"model,omitempty"`
}

// Resume сохранённое резюме пользователя.
type Resume struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Template  string    `json:"template"`
	IsPublic  bool      `json:"is_public"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
