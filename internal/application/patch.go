package application

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/oksasatya/cep-users/internal/domain/entity"
	repo "github.com/oksasatya/cep-users/internal/domain/repository"
	"github.com/oksasatya/cep-users/pkg/apperror"
	"github.com/oksasatya/cep-users/pkg/mailer"
	mailtpl "github.com/oksasatya/cep-users/pkg/mailer/templates"
	"github.com/oksasatya/cep-users/pkg/validation"
)

// fieldSetter validates v and assigns it to u
type fieldSetter func(u *entity.User, v string) error

var patchSetters = map[string]fieldSetter{
	"email": func(u *entity.User, v string) error {
		v = normalizeEmail(v)
		if err := validation.Var(v, "email"); err != nil {
			return apperror.InvalidFieldValue("email", validation.Message(err))
		}
		u.Email = v
		return nil
	},
	"phone": func(u *entity.User, v string) error {
		if err := validation.Var(v, "phone"); err != nil {
			return apperror.InvalidFieldValue("phone", validation.Message(err))
		}
		u.Phone = v
		return nil
	},
	"name": func(u *entity.User, v string) error {
		if err := validation.Var(v, "max=120"); err != nil {
			return apperror.InvalidFieldValue("name", validation.Message(err))
		}
		u.Name = v
		return nil
	},
	"password": func(u *entity.User, v string) error {
		if err := validation.Var(v, "pwd"); err != nil {
			return apperror.InvalidFieldValue("password", validation.Message(err))
		}
		hash, err := hashPassword(v)
		if err != nil {
			return err
		}
		u.Password = hash
		return nil
	},
}

// AllowedPatchKeys lists the fields a user may change on their own profile
func AllowedPatchKeys() []string {
	keys := make([]string, 0, len(patchSetters))
	for k := range patchSetters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Patch applies a partial update to the user identified by id. The request is
// rejected as a whole when any key is outside the allow-list or any value is
// unusable; otherwise only the given fields change.
func (s *Service) Patch(ctx context.Context, id string, fields map[string]any) error {
	var updated *entity.User
	var changed []string

	err := s.Store.WithinTx(ctx, func(ctx context.Context, r repo.Repositories) error {
		u, err := r.Users().GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return apperror.ErrUserNotFound
			}
			return err
		}

		values, err := checkPatch(fields)
		if err != nil {
			return err
		}
		if len(values) == 0 {
			return nil
		}

		next := *u
		keys := make([]string, 0, len(values))
		for k := range values {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if err := patchSetters[k](&next, values[k]); err != nil {
				return err
			}
		}

		if err := r.Users().Update(ctx, &next); err != nil {
			switch {
			case errors.Is(err, repo.ErrDuplicateEmail):
				return apperror.ErrEmailTaken
			case errors.Is(err, repo.ErrNotFound):
				return apperror.ErrUserNotFound
			}
			return err
		}
		updated, changed = &next, keys
		return nil
	})
	if err != nil || updated == nil {
		return err
	}

	s.indexUser(ctx, updated)
	summary := make(map[string]string, len(changed))
	for _, k := range changed {
		switch k {
		case "password":
			summary[k] = "changed"
		case "email":
			summary[k] = updated.Email
		case "phone":
			summary[k] = updated.Phone
		case "name":
			summary[k] = updated.Name
		}
	}
	s.publish(ctx, mailer.EmailJob{
		To:       updated.Email,
		Template: mailtpl.ProfileUpdated,
		Data:     mailtpl.NewProfileUpdatedData(s.AppName, updated.Name, updated.Email, summary, mailtpl.WithTime(updated.UpdatedAt)),
	})
	return nil
}

// checkPatch rejects unknown keys first, then values that are not non-empty strings
func checkPatch(fields map[string]any) (map[string]string, error) {
	var invalid []string
	for k := range fields {
		if _, ok := patchSetters[k]; !ok {
			invalid = append(invalid, k)
		}
	}
	if len(invalid) > 0 {
		sort.Strings(invalid)
		return nil, apperror.InvalidFieldKeys(invalid, AllowedPatchKeys())
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[string]string, len(fields))
	for _, k := range keys {
		v, ok := fields[k].(string)
		if !ok {
			return nil, apperror.InvalidFieldValue(k, "must be a string")
		}
		if k != "password" {
			v = strings.TrimSpace(v)
		}
		if v == "" {
			return nil, apperror.InvalidFieldValue(k, "must not be empty")
		}
		out[k] = v
	}
	return out, nil
}
