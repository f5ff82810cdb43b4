package server

import (
	"net/http"

	"github.com/gorilla/mux"
)

func (s Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.loggingMw)

	api := r.PathPrefix("/api").Subrouter()

	api.Handle("/user/register", s.maxBytesMw(s.userRegister())).Methods(http.MethodPost)
	api.Handle("/user/login", s.maxBytesMw(s.userLogin())).Methods(http.MethodPost)

	userAPI := api.PathPrefix("/user").Subrouter()
	userAPI.Use(s.authMw, s.maxBytesMw)
	userAPI.HandleFunc("/logout", s.userLogout()).Methods(http.MethodPost)
	userAPI.HandleFunc("/info", s.userInfo()).Methods(http.MethodPost)
	userAPI.PathPrefix("").Handler(http.NotFoundHandler())

	itemAPI := api.PathPrefix("/item").Subrouter()
	itemAPI.Use(s.authMw)
	itemAPI.Handle("", s.maxBytesMw(s.itemMutate())).Methods(http.MethodPut)
	itemAPI.HandleFunc("", s.itemList()).Methods(http.MethodGet)
	itemAPI.HandleFunc("/feed", s.itemFeed()).Methods(http.MethodGet)
	itemAPI.HandleFunc("/{name}", s.itemDelete()).Methods(http.MethodDelete)
	itemAPI.PathPrefix("").Handler(http.NotFoundHandler())

	txnAPI := api.PathPrefix("/transaction").Subrouter()
	txnAPI.Use(s.authMw)
	txnAPI.HandleFunc("", s.transactionList()).Methods(http.MethodGet)
	txnAPI.HandleFunc("/summary", s.transactionSummary()).Methods(http.MethodGet)
	txnAPI.PathPrefix("").Handler(http.NotFoundHandler())

	// The image route carries uploads, so it caps its own body size.
	api.HandleFunc("/image", s.imageClassify()).Methods(http.MethodPost)

	return r
}
