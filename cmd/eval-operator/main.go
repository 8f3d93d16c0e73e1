// Command eval-operator runs a Kubernetes controller that evaluates SimilarityEvaluation CRs.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/klejdi94/simeval/config"
	"github.com/klejdi94/simeval/k8s"
	"github.com/klejdi94/simeval/k8s/api/v1"
	_ "github.com/lib/pq"
	"k8s.io/apimachinery/pkg/runtime"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
)

func main() {
	storeKind := flag.String("store", config.StoreNone, "Record results in: none, postgres, redis")
	dsn := flag.String("dsn", "", "PostgreSQL DSN when store=postgres (or SIMEVAL_DSN env)")
	redisAddr := flag.String("redis", "", "Redis address when store=redis (or SIMEVAL_REDIS env)")
	opts := zap.Options{Development: true}
	opts.BindFlags(flag.CommandLine)
	flag.Parse()
	ctrl.SetLogger(zap.New(zap.UseFlagOptions(&opts)))
	setupLog := ctrl.Log.WithName("setup")

	scheme := runtime.NewScheme()
	utilruntime.Must(clientgoscheme.AddToScheme(scheme))
	utilruntime.Must(v1.AddToScheme(scheme))

	sc := config.Store{Kind: *storeKind, DSN: *dsn, Redis: *redisAddr, Table: "simeval_results"}
	if v := os.Getenv("SIMEVAL_DSN"); v != "" && sc.DSN == "" {
		sc.DSN = v
	}
	if v := os.Getenv("SIMEVAL_REDIS"); v != "" && sc.Redis == "" {
		sc.Redis = v
	}
	store, closeStore, err := sc.OpenStore(context.Background())
	if err != nil {
		setupLog.Error(err, "unable to open results store")
		os.Exit(1)
	}
	defer closeStore()

	mgr, err := ctrl.NewManager(ctrl.GetConfigOrDie(), ctrl.Options{Scheme: scheme})
	if err != nil {
		setupLog.Error(err, "unable to create manager")
		os.Exit(1)
	}
	reconciler := &k8s.SimilarityEvaluationReconciler{
		Client: mgr.GetClient(),
		Scheme: mgr.GetScheme(),
		Models: k8s.BackendModelFactory,
		Store:  store,
	}
	if err = reconciler.SetupWithManager(mgr); err != nil {
		setupLog.Error(err, "unable to set up controller")
		os.Exit(1)
	}
	if err = mgr.Start(ctrl.SetupSignalHandler()); err != nil {
		setupLog.Error(err, "manager exited")
		os.Exit(1)
	}
}
