package git

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHelper struct {
	available bool
	availErr  error
	user      string
	pass      string
	fillErr   error

	availableCalls int
	fillCalls      int
}

func (f *fakeHelper) Available(context.Context) (bool, error) {
	f.availableCalls++
	return f.available, f.availErr
}

func (f *fakeHelper) Fill(context.Context, string) (string, string, error) {
	f.fillCalls++
	return f.user, f.pass, f.fillErr
}

func TestResolveSSHSkipsHelper(t *testing.T) {
	helper := &fakeHelper{}
	r := &CredentialResolver{Helper: helper}

	creds, err := r.Resolve(context.Background(), NewRemote("origin", "git@host:repo.git"))
	require.NoError(t, err)
	assert.Equal(t, CredentialsNone, creds.Kind)
	assert.Zero(t, helper.availableCalls)
	assert.Zero(t, helper.fillCalls)
}

func TestResolveHTTPSNeedsHelper(t *testing.T) {
	helper := &fakeHelper{available: false}
	r := &CredentialResolver{Helper: helper}

	_, err := r.Resolve(context.Background(), NewRemote("origin", "https://host/repo.git"))
	assert.ErrorIs(t, err, ErrCredentialHelperUnavailable)
	assert.Equal(t, 1, helper.availableCalls)
	assert.Zero(t, helper.fillCalls)

	_, err = (&CredentialResolver{}).Resolve(context.Background(), NewRemote("origin", "https://host/repo.git"))
	assert.ErrorIs(t, err, ErrCredentialHelperUnavailable)
}

func TestResolveHTTPSFillsUserPass(t *testing.T) {
	helper := &fakeHelper{available: true, user: "ci", pass: "s3cret"}
	r := &CredentialResolver{Helper: helper}

	creds, err := r.Resolve(context.Background(), NewRemote("origin", "https://host/repo.git"))
	require.NoError(t, err)
	assert.Equal(t, Credentials{Kind: CredentialsUserPass, Username: "ci", Password: "s3cret"}, creds)
	assert.NotContains(t, creds.String(), "s3cret")
}

func TestResolveHelperErrors(t *testing.T) {
	r := &CredentialResolver{Helper: &fakeHelper{availErr: errors.New("boom")}}
	_, err := r.Resolve(context.Background(), NewRemote("origin", "https://host/repo.git"))
	assert.ErrorIs(t, err, ErrCredentialHelperUnavailable)

	r = &CredentialResolver{Helper: &fakeHelper{available: true, fillErr: errors.New("locked keychain")}}
	_, err = r.Resolve(context.Background(), NewRemote("origin", "https://host/repo.git"))
	assert.ErrorIs(t, err, ErrCredentialHelperUnavailable)
}
