package sdkgen

import (
	"testing"

	genspec "github.com/mark3labs/openapi2sdk/internal/spec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartitionParameters(t *testing.T) {
	g := PartitionParameters([]genspec.ParameterModel{
		{Name: "id", In: "path"},
		{Name: "x-api-key", In: "header"},
		{Name: "AUTHORIZATION", In: "header"},
		{Name: "X-Trace", In: "header"},
		{Name: "limit", In: "query"},
		{Name: "session", In: "cookie"},
	})
	require.Len(t, g.Path, 1)
	require.Len(t, g.Query, 1)
	require.Len(t, g.Header, 1)
	assert.Equal(t, "X-Trace", g.Header[0].Name)
}

func TestBuildMethod_NoParameters(t *testing.T) {
	m, err := BuildMethod("Health", genspec.OperationModel{Method: genspec.GET, Path: "/health", OperationID: "Health.check"})
	require.NoError(t, err)
	assert.Equal(t, "check", m.Name)
	assert.Equal(t, "GET", m.Verb)
	assert.False(t, m.HasParameters())
	assert.True(t, m.Return.Unconstrained())
	assert.Nil(t, m.Body)
}

func TestBuildMethod_OnlyReservedHeadersTakesNoParameters(t *testing.T) {
	m, err := BuildMethod("Health", genspec.OperationModel{
		Method: genspec.GET, Path: "/health", OperationID: "Health.check",
		Parameters: []genspec.ParameterModel{{Name: "X-Api-Key", In: "header", Required: true, Schema: typed("string")}},
	})
	require.NoError(t, err)
	assert.False(t, m.HasParameters())
}

func TestBuildMethod_Slots(t *testing.T) {
	m, err := BuildMethod("Users", genspec.OperationModel{
		Method:      genspec.PATCH,
		Path:        "/users/{id}",
		OperationID: "UsersController.update",
		Parameters: []genspec.ParameterModel{
			{Name: "id", In: "path", Required: true, Schema: typed("string")},
			{Name: "dryRun", In: "query", Schema: typed("boolean")},
		},
		RequestBody: &genspec.RequestBodyModel{Schema: refSchema("UserPatch")},
		Responses: []genspec.ResponseModel{
			{Status: "200", Schema: refSchema("User")},
			{Status: "404", Schema: refSchema("Error")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "update", m.Name)
	assert.Equal(t, "PATCH", m.Verb)
	assert.Equal(t, "/users/{id}", m.PathTemplate)
	assert.Equal(t, "{id: string}", m.Path.String())
	assert.Equal(t, "{dryRun?: boolean}", m.Query.String())
	assert.True(t, m.Headers.IsEmpty())
	require.NotNil(t, m.Body)
	assert.Equal(t, "UserPatch", m.Body.Ref)
	assert.Equal(t, "User", m.Return.Ref)
}

func TestBuildMethod_InlineBodyIsUnconstrained(t *testing.T) {
	m, err := BuildMethod("Tiers", genspec.OperationModel{
		Method: genspec.PUT, Path: "/tiers", OperationID: "Tiers.replace",
		RequestBody: &genspec.RequestBodyModel{Schema: typed("object")},
		Responses:   []genspec.ResponseModel{{Status: "200", Schema: typed("array")}},
	})
	require.NoError(t, err)
	require.NotNil(t, m.Body)
	assert.True(t, m.Body.Unconstrained())
	assert.True(t, m.Return.Unconstrained())
	assert.True(t, m.HasParameters())
}

func TestBuildMethod_MissingMethodSegment(t *testing.T) {
	_, err := BuildMethod("Users", genspec.OperationModel{Method: genspec.GET, Path: "/users", OperationID: "Users."})
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, EmptyMethod, cfgErr.Code)
	assert.Equal(t, "GET", cfgErr.Method)
}

func TestBuildMethod_MissingOperationID(t *testing.T) {
	_, err := BuildMethod("Users", genspec.OperationModel{Method: genspec.DELETE, Path: "/users/{id}"})
	require.ErrorIs(t, err, ErrConfig)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, MissingOperationID, cfgErr.Code)
	assert.Equal(t, "DELETE", cfgErr.Method)
	assert.Equal(t, "/users/{id}", cfgErr.Path)
}

func TestBuildControllers(t *testing.T) {
	sm := &genspec.ServiceModel{Paths: []genspec.PathModel{
		{Path: "/users", Operations: []genspec.OperationModel{
			op(genspec.GET, "/users", "Users.list"),
			op(genspec.POST, "/users", "Users.create"),
		}},
		{Path: "/users/{id}", Operations: []genspec.OperationModel{
			op(genspec.GET, "/users/{id}", "Users.get"),
		}},
		{Path: "/health", Operations: []genspec.OperationModel{
			op(genspec.GET, "/health", "Health.check"),
		}},
	}}
	ctrls, err := BuildControllers(sm)
	require.NoError(t, err)
	require.Len(t, ctrls, 2)
	assert.Len(t, ctrls[0].Methods, 3)
	assert.Len(t, ctrls[1].Methods, 1)
	for _, c := range ctrls {
		for _, m := range c.Methods {
			assert.Equal(t, c.Name, m.Controller)
		}
	}
}

func TestBuildControllers_DuplicateMethod(t *testing.T) {
	sm := &genspec.ServiceModel{Paths: []genspec.PathModel{
		{Path: "/a", Operations: []genspec.OperationModel{op(genspec.GET, "/a", "Things.get")}},
		{Path: "/b", Operations: []genspec.OperationModel{op(genspec.GET, "/b", "Things.get")}},
	}}
	_, err := BuildControllers(sm)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, DuplicateMethod, cfgErr.Code)
	assert.Contains(t, cfgErr.Message, "GET /a")
}
