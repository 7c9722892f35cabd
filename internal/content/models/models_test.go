package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalizedTextGap(t *testing.T) {
	cases := []struct {
		name        string
		text        LocalizedText
		wantMissing Locale
		wantSource  Locale
		wantOK      bool
	}{
		{"english only", LocalizedText{EN: "Karim"}, LocaleBN, LocaleEN, true},
		{"bengali only", LocalizedText{BN: "করিম"}, LocaleEN, LocaleBN, true},
		{"both filled", LocalizedText{EN: "Karim", BN: "করিম"}, "", "", false},
		{"both empty", LocalizedText{}, "", "", false},
		{"whitespace counts as empty", LocalizedText{EN: "Karim", BN: "  "}, LocaleBN, LocaleEN, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			missing, source, ok := tc.text.Gap()
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.wantMissing, missing)
			assert.Equal(t, tc.wantSource, source)
		})
	}
}

func TestLeaderLocalizedFieldsPointIntoRecord(t *testing.T) {
	l := Leader{Name: LocalizedText{EN: "Karim"}, Message: &LocalizedText{BN: "শান্তি"}}
	fields := l.LocalizedFields()
	require.Len(t, fields, 3)

	fields[0].Text.Set(LocaleBN, "করিম")
	assert.Equal(t, "করিম", l.Name.BN)
	// only Message is one-sided; Designation is empty in both locales
	assert.Equal(t, 1, CountGaps(l.LocalizedFields()))
}

func TestDonationTransitions(t *testing.T) {
	pending := Donation{Status: DonationPending}
	assert.True(t, pending.CanTransitionTo(DonationApproved))
	assert.True(t, pending.CanTransitionTo(DonationRejected))
	assert.False(t, pending.CanTransitionTo(DonationPending))

	approved := Donation{Status: DonationApproved}
	assert.False(t, approved.CanTransitionTo(DonationRejected))
}

func TestDonationJSONUsesStoredFieldNames(t *testing.T) {
	raw := `{"id":"d1","donorName":"Rahim","mobile":"017","amount":500,"method":"Bkash","trxId":"TX1","isAnonymous":false,"date":"2024-01-05","status":"pending"}`
	var d Donation
	require.NoError(t, json.Unmarshal([]byte(raw), &d))

	assert.Equal(t, int64(500), d.Amount)
	assert.Equal(t, MethodBkash, d.Method)
	assert.True(t, d.Method.RequiresReference())

	out, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(out))
}

func TestAppSettingsKeepsUnknownFields(t *testing.T) {
	raw := `{"contactPhone":"017","adminUser":"admin","adminPassHash":"h","socialLinks":{"facebook":"f"},"bankAccount":"123-45"}`
	var s AppSettings
	require.NoError(t, json.Unmarshal([]byte(raw), &s))

	assert.Equal(t, "017", s.ContactPhone)
	assert.Equal(t, "f", s.SocialLinks[SocialFacebook])
	require.Contains(t, s.Extra, "bankAccount")

	out, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(out))
}

func TestAppSettingsPublicHidesCredentials(t *testing.T) {
	s := AppSettings{
		ContactPhone:  "017",
		AdminPassHash: "secret",
		SocialLinks:   SocialLinks{SocialFacebook: "f", SocialTwitter: ""},
	}
	out, err := json.Marshal(s.Public())
	require.NoError(t, err)
	assert.JSONEq(t, `{"contactPhone":"017","socialLinks":{"facebook":"f"}}`, string(out))
}

func TestCollectionValid(t *testing.T) {
	assert.True(t, CollectionLeaders.Valid())
	assert.False(t, Collection("app_settings").Valid())
}
