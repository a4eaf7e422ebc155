package sdkgen

import (
	"testing"

	genspec "github.com/mark3labs/openapi2sdk/internal/spec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func op(method genspec.HttpMethod, path, id string) genspec.OperationModel {
	return genspec.OperationModel{Method: method, Path: path, OperationID: id}
}

func TestControllerName(t *testing.T) {
	cases := map[string]string{
		"UsersController.list":     "Users",
		"Users.list":               "Users",
		"Controller.list":          "",
		"users.list.extra":         "users",
		"UsersController":          "",
		"":                         "",
		" LoyaltyController .get ": "Loyalty",
	}
	for in, want := range cases {
		assert.Equal(t, want, ControllerName(in), in)
	}
}

func TestMethodName(t *testing.T) {
	assert.Equal(t, "list", MethodName("UsersController.list"))
	assert.Equal(t, "get", MethodName("a.get.more"))
	assert.Equal(t, "", MethodName("nodot"))
	assert.Equal(t, "", MethodName("Users."))
}

func TestGroupOperations_RepresentativeAndOrder(t *testing.T) {
	sm := &genspec.ServiceModel{Paths: []genspec.PathModel{
		{Path: "/users", Operations: []genspec.OperationModel{
			op(genspec.DELETE, "/users", "Admin.purge"),
			op(genspec.POST, "/users", "UsersController.create"),
		}},
		{Path: "/health", Operations: []genspec.OperationModel{
			op(genspec.GET, "/health", "Health.check"),
		}},
		{Path: "/users/{id}", Operations: []genspec.OperationModel{
			op(genspec.PATCH, "/users/{id}", "UsersController.update"),
			op(genspec.GET, "/users/{id}", "UsersController.get"),
			op(genspec.HttpMethod("trace"), "/users/{id}", "UsersController.trace"),
		}},
	}}
	groups, err := GroupOperations(sm)
	require.NoError(t, err)
	require.Len(t, groups, 2)

	assert.Equal(t, "Users", groups[0].Name)
	var ids []string
	for _, o := range groups[0].Operations {
		ids = append(ids, o.OperationID)
	}
	// the POST names the controller of /users; the DELETE joins it
	assert.Equal(t, []string{"Admin.purge", "UsersController.create", "UsersController.update", "UsersController.get"}, ids)
	assert.Equal(t, "Health", groups[1].Name)
}

func TestGroupOperations_Errors(t *testing.T) {
	cases := map[string]struct {
		paths []genspec.PathModel
		code  ErrorCode
	}{
		"no operations": {
			paths: []genspec.PathModel{{Path: "/empty"}},
			code:  EmptyPath,
		},
		"no dot": {
			paths: []genspec.PathModel{{Path: "/x", Operations: []genspec.OperationModel{op(genspec.GET, "/x", "getX")}}},
			code:  EmptyController,
		},
		"missing operationId": {
			paths: []genspec.PathModel{{Path: "/x", Operations: []genspec.OperationModel{op(genspec.GET, "/x", "  ")}}},
			code:  MissingOperationID,
		},
		"only head": {
			paths: []genspec.PathModel{{Path: "/x", Operations: []genspec.OperationModel{op(genspec.HEAD, "/x", "X.head")}}},
			code:  EmptyController,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := GroupOperations(&genspec.ServiceModel{Paths: tc.paths})
			require.ErrorIs(t, err, ErrConfig)
			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tc.code, cfgErr.Code)
			assert.Equal(t, tc.paths[0].Path, cfgErr.Path)
		})
	}
}

func TestConfigError_Message(t *testing.T) {
	err := &ConfigError{Code: EmptyMethod, Path: "/x", Method: "GET", OperationID: "X", Message: "bad"}
	assert.Equal(t, `EmptyMethod: bad (GET /x) operationId="X"`, err.Error())
}
