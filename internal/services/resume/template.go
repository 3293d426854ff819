package resume

import (
	"fmt"
	"strings"

	"github.com/magabrotheeeer/resume-builder/internal/models"
)

// SystemPrompt роль модели при генерации.
const SystemPrompt = "You are a professional resume writer who creates excellent resumes."

// BuildPrompt собирает запрос к модели из данных формы.
func BuildPrompt(d models.ResumeFormData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate a professional resume for the position of %s based on the following information:\n\n", d.TargetPosition)
	fmt.Fprintf(&b, "Name: %s\n", d.PersonalInfo.FullName)
	if d.PersonalInfo.Email != "" {
		fmt.Fprintf(&b, "Email: %s\n", d.PersonalInfo.Email)
	}
	if d.PersonalInfo.Phone != "" {
		fmt.Fprintf(&b, "Phone: %s\n", d.PersonalInfo.Phone)
	}
	if d.PersonalInfo.Location != "" {
		fmt.Fprintf(&b, "Location: %s\n", d.PersonalInfo.Location)
	}

	b.WriteString("\nEducation:\n")
	for _, edu := range d.Education {
		fmt.Fprintf(&b, "- %s, %s, %s - %s\n", edu.Institution, edu.Degree, edu.StartDate, edu.EndDate)
		if edu.Description != "" {
			fmt.Fprintf(&b, "  %s\n", edu.Description)
		}
	}

	b.WriteString("\nExperience:\n")
	for _, exp := range d.Experience {
		fmt.Fprintf(&b, "- %s, %s, %s - %s\n  %s\n", exp.Company, exp.Position, exp.StartDate, exp.EndDate, exp.Description)
	}

	fmt.Fprintf(&b, "\nSkills: %s\n", strings.Join(d.Skills, ", "))
	if len(d.Languages) > 0 {
		fmt.Fprintf(&b, "\nLanguages: %s\n", languages(d.Languages))
	}
	if d.AdditionalInfo != "" {
		fmt.Fprintf(&b, "\nAdditional Information: %s\n", d.AdditionalInfo)
	}
	b.WriteString("\nPlease create a professional and well-structured resume. " +
		"Format the text with clear sections for education, experience, skills, etc.")
	return b.String()
}

// Fallback собирает текст резюме по локальному шаблону, без модели.
func Fallback(d models.ResumeFormData) string {
	p := d.PersonalInfo
	var b strings.Builder

	b.WriteString(strings.ToUpper(p.FullName) + "\n")
	b.WriteString(d.TargetPosition + "\n")
	b.WriteString(joinNonEmpty(" | ", p.Location, p.Phone, p.Email, p.LinkedIn, p.GitHub) + "\n")

	b.WriteString("\nSUMMARY\n")
	if d.AdditionalInfo != "" {
		b.WriteString(d.AdditionalInfo + "\n")
	} else {
		top := d.Skills
		if len(top) > 3 {
			top = top[:3]
		}
		fmt.Fprintf(&b, "Experienced professional seeking a position as %s. Bringing a strong background in %s, "+
			"and a passion for delivering high-quality results.\n", d.TargetPosition, strings.Join(top, ", "))
	}

	b.WriteString("\nEXPERIENCE\n")
	for i, exp := range d.Experience {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s, %s\n%s - %s\n", exp.Position, exp.Company, exp.StartDate, exp.EndDate)
		for _, line := range strings.Split(exp.Description, "\n") {
			b.WriteString("• " + line + "\n")
		}
	}

	b.WriteString("\nEDUCATION\n")
	for i, edu := range d.Education {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s\n%s, %s - %s\n", edu.Degree, edu.Institution, edu.StartDate, edu.EndDate)
		if edu.Description != "" {
			b.WriteString(edu.Description + "\n")
		}
	}

	b.WriteString("\nSKILLS\n")
	b.WriteString(strings.Join(d.Skills, ", ") + "\n")

	if len(d.Languages) > 0 {
		b.WriteString("\nLANGUAGES\n")
		b.WriteString(languages(d.Languages) + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func languages(langs []models.Language) string {
	parts := make([]string, 0, len(langs))
	for _, l := range langs {
		parts = append(parts, fmt.Sprintf("%s (%s)", l.Language, l.Proficiency))
	}
	return strings.Join(parts, ", ")
}

func joinNonEmpty(sep string, parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}
