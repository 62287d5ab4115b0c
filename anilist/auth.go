package anilist

import (
	"errors"

	"github.com/yato-cli/yato/constant"
	"github.com/yato-cli/yato/log"
	"github.com/zalando/go-keyring"
)

const keyringUser = "anilist_token"

// AuthURL is where a user obtains a token for SetToken.
const AuthURL = "https://anilist.co/api/v2/oauth/authorize?client_id=25501&response_type=token"

// SetToken stores the token in the system keyring.
func SetToken(token string) error {
	if token == "" {
		return errors.New("token cannot be empty")
	}
	if err := keyring.Set(constant.Yato, keyringUser, token); err != nil {
		log.Errorf("save token to keyring: %v", err)
		return err
	}
	return nil
}

// GetToken reads the token from the system keyring.
func GetToken() (string, error) {
	token, err := keyring.Get(constant.Yato, keyringUser)
	if err != nil {
		log.Debugf("no anilist token in keyring: %v", err)
		return "", err
	}
	return token, nil
}

// DeleteToken removes the token from the system keyring.
func DeleteToken() error {
	err := keyring.Delete(constant.Yato, keyringUser)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		log.Errorf("delete token from keyring: %v", err)
		return err
	}
	return nil
}
