package remote

import (
	"context"
	"net/http"

	"github.com/stemsi/etesthub-backend/internal/model"
)

// GetExam fetches exam reference data.
func (c *Client) GetExam(ctx context.Context, cred model.Credential, id string) (*model.Exam, error) {
	var out examDTO
	if err := c.do(ctx, cred.Token, http.MethodGet, "exams/"+segment(id), nil, &out); err != nil {
		return nil, err
	}
	return out.toModel(), nil
}

// GetQuestion fetches one question including its correct answer.
func (c *Client) GetQuestion(ctx context.Context, cred model.Credential, id string) (*model.Question, error) {
	var out questionDTO
	if err := c.do(ctx, cred.Token, http.MethodGet, "questions/"+segment(id), nil, &out); err != nil {
		return nil, err
	}
	return out.toModel(), nil
}

type loginRequestDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponseDTO struct {
	Token string  `json:"token"`
	User  userDTO `json:"user"`
}

// Login exchanges user credentials for a data-service token.
func (c *Client) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	var out loginResponseDTO
	err := c.do(ctx, "", http.MethodPost, "auth/login", loginRequestDTO{Email: email, Password: password}, &out)
	if err != nil {
		return nil, "", err
	}
	if out.Token == "" || out.User.ID == "" {
		return nil, "", ErrUnauthorized
	}
	return out.User.toModel(), out.Token, nil
}
