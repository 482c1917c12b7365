package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/craftsite-simple/lib/kubernetes"
	"github.com/craftsite-simple/utils"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	k8serrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"
	"k8s.io/apimachinery/pkg/util/wait"
)

const (
	tenantDBNamespace = "tenant-databases"
	tenantDBImage     = "postgres:16-alpine"
	tenantDBPort      = 5432
	tenantDBUser      = "tenant"
)

// KubernetesProvisioner provisions tenant databases as postgres workloads in
// the cluster, one Deployment and Service per tenant key.
type KubernetesProvisioner struct {
	client       *kubernetes.Client
	pollInterval time.Duration
	pollTimeout  time.Duration
}

// NewKubernetesProvisioner creates a Kubernetes-backed provisioner.
func NewKubernetesProvisioner() *KubernetesProvisioner {
	client, err := kubernetes.NewClient()
	if err != nil {
		// Log error but continue - operations requiring K8s will fail gracefully
		log.Printf("Warning: Could not create Kubernetes client: %v", err)
	}

	return &KubernetesProvisioner{
		client:       client,
		pollInterval: 3 * time.Second,
		pollTimeout:  2 * time.Minute,
	}
}

// Provision deploys a postgres instance for the tenant and returns its
// in-cluster connection string once a pod is running.
func (p *KubernetesProvisioner) Provision(ctx context.Context, tenantKey string) (string, error) {
	if p.client == nil {
		return "", utils.NewError(utils.ErrConfiguration, "kubernetes client is not initialized")
	}

	if err := p.ensureNamespace(ctx); err != nil {
		return "", utils.WrapError(utils.ErrProvisioning, "failed to ensure tenant namespace", err)
	}

	password := utils.GenerateSecurePassword(24)

	// Existing resources mean a derived-name collision, which is a caller
	// bug, never something to silently reuse.
	_, err := p.client.Clientset.AppsV1().Deployments(tenantDBNamespace).Get(ctx, tenantKey, metav1.GetOptions{})
	if err == nil {
		return "", utils.NewError(utils.ErrConflict, fmt.Sprintf("database %s already exists", tenantKey))
	}
	if !k8serrors.IsNotFound(err) {
		return "", utils.WrapError(utils.ErrProvisioning, "failed to check existing database", err)
	}

	log.Printf("Creating tenant database workload: %s", tenantKey)

	if _, err := p.client.Clientset.AppsV1().Deployments(tenantDBNamespace).Create(ctx, tenantDBDeploymentSpec(tenantKey, password), metav1.CreateOptions{}); err != nil {
		return "", utils.WrapError(utils.ErrProvisioning, "failed to create database deployment", err)
	}

	if _, err := p.client.Clientset.CoreV1().Services(tenantDBNamespace).Create(ctx, tenantDBServiceSpec(tenantKey), metav1.CreateOptions{}); err != nil {
		return "", utils.WrapError(utils.ErrProvisioning, "failed to create database service", err)
	}

	// Bounded wait for a running pod; past the timeout the request fails
	// instead of hanging.
	err = wait.PollImmediate(p.pollInterval, p.pollTimeout, func() (bool, error) {
		pods, err := p.client.Clientset.CoreV1().Pods(tenantDBNamespace).List(ctx, metav1.ListOptions{
			LabelSelector: "app=tenant-db,tenant-key=" + tenantKey,
		})
		if err != nil {
			return false, err
		}
		for _, pod := range pods.Items {
			if pod.Status.Phase == corev1.PodRunning {
				return true, nil
			}
		}
		return false, nil
	})
	if err != nil {
		return "", utils.WrapError(utils.ErrTimeout, fmt.Sprintf("database %s did not become ready", tenantKey), err)
	}

	connectionRef := fmt.Sprintf("postgres://%s:%s@%s.%s.svc:%d/%s?sslmode=disable",
		tenantDBUser, password, tenantKey, tenantDBNamespace, tenantDBPort, tenantKey)

	log.Printf("✅ Tenant database ready: %s", tenantKey)
	return connectionRef, nil
}

// Teardown removes the tenant's database workload. Missing resources are
// treated as already removed.
func (p *KubernetesProvisioner) Teardown(ctx context.Context, tenantKey string) error {
	if p.client == nil {
		return utils.NewError(utils.ErrConfiguration, "kubernetes client is not initialized")
	}

	log.Printf("Deleting tenant database workload: %s", tenantKey)

	err := p.client.Clientset.AppsV1().Deployments(tenantDBNamespace).Delete(ctx, tenantKey, metav1.DeleteOptions{})
	if err != nil && !k8serrors.IsNotFound(err) {
		return utils.WrapError(utils.ErrProvisioning, "failed to delete database deployment", err)
	}

	err = p.client.Clientset.CoreV1().Services(tenantDBNamespace).Delete(ctx, tenantKey, metav1.DeleteOptions{})
	if err != nil && !k8serrors.IsNotFound(err) {
		return utils.WrapError(utils.ErrProvisioning, "failed to delete database service", err)
	}

	return nil
}

// ensureNamespace checks if the tenant namespace exists and creates it if it doesn't
func (p *KubernetesProvisioner) ensureNamespace(ctx context.Context) error {
	_, err := p.client.Clientset.CoreV1().Namespaces().Get(ctx, tenantDBNamespace, metav1.GetOptions{})
	if err == nil {
		return nil
	}
	if !k8serrors.IsNotFound(err) {
		return fmt.Errorf("error checking namespace: %v", err)
	}

	log.Println("Creating namespace:", tenantDBNamespace)
	namespace := &corev1.Namespace{
		ObjectMeta: metav1.ObjectMeta{
			Name: tenantDBNamespace,
		},
	}
	_, err = p.client.Clientset.CoreV1().Namespaces().Create(ctx, namespace, metav1.CreateOptions{})
	if err != nil {
		return fmt.Errorf("error creating namespace: %v", err)
	}
	return nil
}

func tenantDBDeploymentSpec(tenantKey, password string) *appsv1.Deployment {
	labels := map[string]string{
		"app":        "tenant-db",
		"tenant-key": tenantKey,
	}
	replicas := int32(1)

	return &appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{
			Name:      tenantKey,
			Namespace: tenantDBNamespace,
			Labels:    labels,
		},
		Spec: appsv1.DeploymentSpec{
			Replicas: &replicas,
			Selector: &metav1.LabelSelector{MatchLabels: labels},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: labels},
				Spec: corev1.PodSpec{
					Containers: []corev1.Container{
						{
							Name:  "postgres",
							Image: tenantDBImage,
							Ports: []corev1.ContainerPort{
								{ContainerPort: tenantDBPort},
							},
							Env: []corev1.EnvVar{
								{Name: "POSTGRES_USER", Value: tenantDBUser},
								{Name: "POSTGRES_PASSWORD", Value: password},
								{Name: "POSTGRES_DB", Value: tenantKey},
							},
						},
					},
				},
			},
		},
	}
}

func tenantDBServiceSpec(tenantKey string) *corev1.Service {
	labels := map[string]string{
		"app":        "tenant-db",
		"tenant-key": tenantKey,
	}

	return &corev1.Service{
		ObjectMeta: metav1.ObjectMeta{
			Name:      tenantKey,
			Namespace: tenantDBNamespace,
			Labels:    labels,
		},
		Spec: corev1.ServiceSpec{
			Selector: labels,
			Ports: []corev1.ServicePort{
				{
					Port:       tenantDBPort,
					TargetPort: intstr.FromInt(tenantDBPort),
				},
			},
		},
	}
}
