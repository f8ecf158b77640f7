package main

import (
	"flag"
	"fmt"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	C "clickpulse/config"
	H "clickpulse/handler"
)

// ./app --env=development --port=8100 --artifacts_dir=artifacts
func main() {
	env := flag.String("env", "development", "")
	port := flag.Int("port", 0, "Overrides the configured HTTP port.")
	artifactsDir := flag.String("artifacts_dir", "", "Overrides the configured artifacts dir.")
	flag.Parse()

	if !C.IsValidEnv(*env) {
		panic(fmt.Errorf("env [ %s ] not recognised", *env))
	}

	conf, err := C.NewConfiguration("app")
	if err != nil {
		log.WithError(err).Fatal("Failed to build configuration.")
	}
	conf.Env = *env
	if *port != 0 {
		conf.Port = *port
	}
	if *artifactsDir != "" {
		conf.ArtifactsDir = *artifactsDir
	}
	C.InitConf(conf)

	if conf.Env == C.PRODUCTION {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()
	H.InitRoutes(r)

	log.WithField("port", conf.Port).Info("Serving run artifacts.")
	if err := r.Run(fmt.Sprintf(":%d", conf.Port)); err != nil {
		log.WithError(err).Fatal("Server exited.")
	}
}
