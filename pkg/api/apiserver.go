package api

import (
	"net/http"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	"github.com/emicklei/go-restful/v3"
	"github.com/go-openapi/spec"
	"github.com/golang/glog"

	"selfservice/internal/controllers"
)

// APIServer hosts the machine facing ops API, separate from the web
// portal's listener.
type APIServer struct {
	Server *http.Server

	container *restful.Container
}

func New(addr string) (*APIServer, error) {
	as := &APIServer{}

	server := &http.Server{
		Addr: addr,
	}

	as.Server = server
	return as, nil
}

func (s *APIServer) PrepareRun(connector controllers.ConnectorAPI) error {
	s.container = restful.NewContainer()
	s.container.Router(restful.CurlyRouter{})

	if err := AddToContainer(s.container, connector); err != nil {
		return err
	}
	s.installAPIDocs()

	for _, ws := range s.container.RegisteredWebServices() {
		glog.Infof("registered module: %s", ws.RootPath())
	}

	s.Server.Handler = s.container
	return nil
}

func (s *APIServer) Run() error {
	return s.Server.ListenAndServe()
}

func (s *APIServer) installAPIDocs() {
	config := restfulspec.Config{
		WebServices:                   s.container.RegisteredWebServices(),
		APIPath:                       "/selfservice/v1/apidocs.json",
		PostBuildSwaggerObjectHandler: enrichSwaggerObject}
	s.container.Add(restfulspec.NewOpenAPIService(config))
}

func enrichSwaggerObject(swo *spec.Swagger) {
	swo.Info = &spec.Info{
		InfoProps: spec.InfoProps{
			Title:       "Selfservice",
			Description: "Ops API for the payments selfservice portal",
			Version:     "1.0.0",
		},
	}
}
