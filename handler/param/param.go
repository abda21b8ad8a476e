package param

import (
	"encoding/json"
	"net/http"

	"github.com/asaskevich/govalidator"
	"github.com/gorilla/schema"
	"github.com/twitchtv/twirp"
)

var decoder = func() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	d.SetAliasTag("json")
	return d
}()

func init() {
	govalidator.TagMap["address"] = govalidator.Validator(func(str string) bool {
		return govalidator.Matches(str, "^0x[0-9a-fA-F]{40}$")
	})
}

// Binding decodes the json body and validates it
func Binding(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return twirp.InvalidArgumentError("body", err.Error())
	}

	return validate(v)
}

// Query decodes the url query and validates it
func Query(r *http.Request, v interface{}) error {
	if err := decoder.Decode(v, r.URL.Query()); err != nil {
		return twirp.InvalidArgumentError("query", err.Error())
	}

	return validate(v)
}

func validate(v interface{}) error {
	if _, err := govalidator.ValidateStruct(v); err != nil {
		return twirp.InvalidArgumentError("params", err.Error())
	}

	return nil
}
