package render

import (
	"encoding/json"
	"leverage/handler/codes"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/twitchtv/twirp"
)

type H map[string]interface{}

// JSON render with json
func JSON(w http.ResponseWriter, v interface{}) {
	write(w, http.StatusOK, H{"data": v})
}

// Error render a twirp error, engine errors are mapped first
func Error(w http.ResponseWriter, err error) {
	twerr := codes.From(err)
	write(w, twirp.ServerHTTPStatusFromErrorCode(twerr.Code()), H{
		"code": codes.Get(twerr),
		"msg":  twerr.Msg(),
	})
}

// BadRequest bad request error
func BadRequest(w http.ResponseWriter, err error) {
	Error(w, twirp.InvalidArgumentError("request", err.Error()))
}

func write(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Errorln("render json")
	}
}
