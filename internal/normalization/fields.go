package normalization

import "regexp"

type fieldRule struct {
	pattern *regexp.Regexp
	key     string
}

func rule(expr, key string) fieldRule {
	return fieldRule{pattern: regexp.MustCompile(expr), key: key}
}

// semanticRules map raw key/label text to canonical field names. Matching is
// first-rule-wins over the lowercased key+label, so more specific patterns
// (father_name) must stay above the general ones (name).
var semanticRules = []fieldRule{
	// Relations before bare "name". Labels come in both orders
	// ("Father's Name", "Name of Father"), so each rule carries both.
	rule(`(father_?s?_?name|name_of_(the_)?father)`, "father_name"),
	rule(`(mother_?s?_?name|name_of_(the_)?mother)`, "mother_name"),
	rule(`((spouse|husband|wife)_?name|name_of_(the_)?(spouse|husband|wife))`, "spouse_name"),
	rule(`(guardian_?name|name_of_(the_)?guardian|parent_?guardian)`, "guardian_name"),

	// Government identifiers.
	rule(`(aadhaar|aadhar|\buid\b)`, "aadhaar_number"),
	rule(`\bpan_?(number|no|card)?\b`, "pan_number"),
	rule(`passport`, "passport_number"),
	rule(`(voter_?id|epic)`, "voter_id"),
	rule(`(driving_?licen[cs]e|dl_?(number|no))`, "driving_license"),
	rule(`enrol?lment_?(id|no|number)?`, "enrollment_id"),
	rule(`(registration|document)_?(number|no|id)`, "document_number"),

	// Contact.
	rule(`(mobile|phone|contact)_?(number|no)?`, "mobile_number"),
	rule(`e_?mail`, "email"),

	// Address components before the aggregate address.
	rule(`(house_?(no|number)|building|flat)`, "house_number"),
	rule(`(street|road|lane)`, "street"),
	rule(`landmark`, "landmark"),
	rule(`(village|town|city|vtc)`, "village_town_city"),
	rule(`(post_?office|\bpo\b)`, "post_office"),
	rule(`(sub_?district|taluk|tehsil|mandal)`, "sub_district"),
	rule(`district`, "district"),
	rule(`state`, "state"),
	rule(`(pin_?code|postal_?code|zip)`, "pincode"),
	rule(`address`, "address"),

	// Personal attributes.
	rule(`(date_?of_?birth|birth_?date|\bdob\b)`, "date_of_birth"),
	rule(`(gender|sex)`, "gender"),
	rule(`\bage\b`, "age"),
	rule(`(nationality|citizenship)`, "nationality"),
	rule(`(religion)`, "religion"),
	rule(`(occupation|profession)`, "occupation"),
	rule(`marital_?status`, "marital_status"),
	rule(`blood_?group`, "blood_group"),

	// Generic name last. Plain substring, like the address rules: keys are
	// snake_case so \b would stop at underscores ("name_of_student").
	rule(`(full_?name|applicant_?name|resident_?name|holder_?name|name)`, "full_name"),
}

// SemanticKey canonicalizes a raw extracted key and its display label into a
// shared field identifier. Unknown keys fall back to their own snake_case
// form so entity-specific data is kept rather than discarded.
func SemanticKey(rawKey, rawLabel string) string {
	haystack := NormalizeKey(rawKey) + " " + NormalizeKey(rawLabel)
	for _, r := range semanticRules {
		if r.pattern.MatchString(haystack) {
			return r.key
		}
	}
	if k := NormalizeKey(rawKey); k != "" {
		return k
	}
	return NormalizeKey(rawLabel)
}
