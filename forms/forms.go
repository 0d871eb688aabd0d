// Package forms holds the per-entity form validators. Each validator takes
// the raw form values and, for updates, the existing entity; it whitelists
// and coerces the fields it knows about and returns either a ready-to-persist
// entity or a field -> message error map for re-rendering the form.
package forms

import (
	"net/mail"
	"strconv"
	"strings"
	"time"

	"blogicum/models"
)

type Errors map[string]string

const maxTitleLen = 256

// pub_date arrives either from a datetime-local input or as RFC 3339.
var pubDateLayouts = []string{"2006-01-02T15:04", "2006-01-02 15:04", time.RFC3339}

// PostForm validates every Post field except author and created_at.
// A nil existing means creation; on update, omitted fields keep their values.
func PostForm(values map[string]string, existing *models.Post) (*models.Post, Errors) {
	errs := Errors{}

	post := models.Post{IsPublished: true}
	if existing != nil {
		post = *existing
	}

	if raw, ok := values["title"]; ok || existing == nil {
		title := strings.TrimSpace(raw)
		switch {
		case title == "":
			errs["title"] = "Title is required"
		case len(title) > maxTitleLen:
			errs["title"] = "Title must be at most 256 characters"
		default:
			post.Title = title
		}
	}

	if raw, ok := values["text"]; ok || existing == nil {
		text := strings.TrimSpace(raw)
		if text == "" {
			errs["text"] = "Text is required"
		} else {
			post.Text = text
		}
	}

	if raw, ok := values["pub_date"]; ok || existing == nil {
		if pubDate, perr := parsePubDate(raw); perr != "" {
			errs["pub_date"] = perr
		} else {
			post.PubDate = pubDate
		}
	}

	if raw, ok := values["location"]; ok {
		if id, perr := parseOptionalID(raw); perr != "" {
			errs["location"] = "Location must be a numeric id"
		} else {
			post.LocationID = id
			post.Location = nil
		}
	}

	if raw, ok := values["category"]; ok {
		if id, perr := parseOptionalID(raw); perr != "" {
			errs["category"] = "Category must be a numeric id"
		} else {
			post.CategoryID = id
			post.Category = nil
		}
	}

	if raw, ok := values["is_published"]; ok {
		post.IsPublished = parseBool(raw)
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return &post, nil
}

// CommentForm accepts the text field only.
func CommentForm(values map[string]string, existing *models.Comment) (*models.Comment, Errors) {
	comment := models.Comment{}
	if existing != nil {
		comment = *existing
	}

	text := strings.TrimSpace(values["text"])
	if text == "" {
		return nil, Errors{"text": "Comment text is required"}
	}

	comment.Text = text
	return &comment, nil
}

// UserForm accepts email, first name and last name only.
func UserForm(values map[string]string, existing *models.User) (*models.User, Errors) {
	errs := Errors{}

	user := models.User{}
	if existing != nil {
		user = *existing
	}

	if raw, ok := values["email"]; ok || existing == nil {
		email := strings.TrimSpace(raw)
		if _, err := mail.ParseAddress(email); err != nil {
			errs["email"] = "A valid email address is required"
		} else {
			user.Email = email
		}
	}

	if raw, ok := values["first_name"]; ok {
		user.FirstName = strings.TrimSpace(raw)
	}
	if raw, ok := values["last_name"]; ok {
		user.LastName = strings.TrimSpace(raw)
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return &user, nil
}

// PasswordForm accepts the password field only. The returned value is the
// raw password; the auth subsystem hashes it before persistence.
func PasswordForm(values map[string]string) (string, Errors) {
	password := values["password"]
	if len(password) < 8 {
		return "", Errors{"password": "Password must be at least 8 characters"}
	}
	return password, nil
}

func parsePubDate(raw string) (time.Time, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, "Publication date is required"
	}
	for _, layout := range pubDateLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return t, ""
		}
	}
	return time.Time{}, "Publication date must look like 2006-01-02T15:04"
}

func parseOptionalID(raw string) (*int, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ""
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return nil, "invalid id"
	}
	return &id, ""
}

func parseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "on", "true", "yes":
		return true
	default:
		return false
	}
}
