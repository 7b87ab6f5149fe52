package azure

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratoview/cloudsync/pkg/provider"
)

func TestListUsersPaginates(t *testing.T) {
	var server *httptest.Server

	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1.0/users":
			fmt.Fprintf(w, `{
				"value": [
					{
						"id": "u1",
						"userPrincipalName": "alice@contoso.com",
						"mail": "alice@contoso.com",
						"displayName": "Alice",
						"accountEnabled": true,
						"assignedLicenses": [{"skuId": "sku-1"}, {"skuId": "sku-2"}],
						"signInActivity": {"lastSignInDateTime": "2026-02-10T08:30:00Z"}
					}
				],
				"@odata.nextLink": "%s/v1.0/users-page2"
			}`, server.URL)
		case "/v1.0/users-page2":
			fmt.Fprint(w, `{
				"value": [
					{"id": "u2", "userPrincipalName": "bob@contoso.com", "displayName": "Bob", "accountEnabled": false}
				]
			}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewGraphClient(staticCredential{}, testOptions(server.URL))

	var got []provider.RawUser

	err := client.ListUsers(context.Background(), func(raw provider.RawUser) error {
		got = append(got, raw)
		return nil
	})
	require.NoError(t, err)

	require.Len(t, got, 2)

	assert.Equal(t, "alice@contoso.com", got[0].UserPrincipalName)
	assert.Equal(t, []string{"sku-1", "sku-2"}, got[0].LicenseSKUs)
	require.NotNil(t, got[0].LastSignIn)
	assert.Equal(t, 2026, got[0].LastSignIn.Year())

	assert.Equal(t, "bob@contoso.com", got[1].UserPrincipalName)
	assert.False(t, got[1].AccountEnabled)
	assert.Nil(t, got[1].LastSignIn)
}

func TestListLicenses(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1.0/subscribedSkus", r.URL.Path)

		fmt.Fprint(w, `{
			"value": [
				{"skuId": "sku-1", "skuPartNumber": "ENTERPRISEPACK", "consumedUnits": 8, "prepaidUnits": {"enabled": 10}},
				{"skuId": "sku-2", "skuPartNumber": "FLOW_FREE", "consumedUnits": 3, "prepaidUnits": {"enabled": 100}}
			]
		}`)
	}))
	defer server.Close()

	client := NewGraphClient(staticCredential{}, testOptions(server.URL))

	licenses, err := client.ListLicenses(context.Background())
	require.NoError(t, err)

	require.Len(t, licenses, 2)
	assert.Equal(t, "ENTERPRISEPACK", licenses[0].SKUPartNumber)
	assert.Equal(t, 8, licenses[0].ConsumedUnits)
	assert.Equal(t, 10, licenses[0].PrepaidUnits)
}

func TestListManagedDevicesPaginates(t *testing.T) {
	var server *httptest.Server

	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1.0/deviceManagement/managedDevices":
			fmt.Fprintf(w, `{
				"value": [
					{"id": "d1", "deviceName": "LAPTOP-ALICE", "operatingSystem": "Windows", "complianceState": "compliant", "lastSyncDateTime": "2026-02-12T06:00:00Z"}
				],
				"@odata.nextLink": "%s/v1.0/devices-page2"
			}`, server.URL)
		case "/v1.0/devices-page2":
			fmt.Fprint(w, `{
				"value": [
					{"id": "d2", "deviceName": "PHONE-BOB", "operatingSystem": "iOS", "complianceState": "noncompliant"}
				]
			}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewGraphClient(staticCredential{}, testOptions(server.URL))

	var got []provider.RawDevice

	err := client.ListManagedDevices(context.Background(), func(raw provider.RawDevice) error {
		got = append(got, raw)
		return nil
	})
	require.NoError(t, err)

	require.Len(t, got, 2)

	assert.Equal(t, "LAPTOP-ALICE", got[0].DeviceName)
	assert.Equal(t, "compliant", got[0].ComplianceState)
	require.NotNil(t, got[0].LastSync)
	assert.Equal(t, 2026, got[0].LastSync.Year())

	assert.Equal(t, "PHONE-BOB", got[1].DeviceName)
	assert.Nil(t, got[1].LastSync)
}

func TestListUsersAuthError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := NewGraphClient(staticCredential{}, testOptions(server.URL))

	err := client.ListUsers(context.Background(), func(provider.RawUser) error { return nil })
	require.Error(t, err)
	assert.True(t, provider.IsAuth(err))
}
